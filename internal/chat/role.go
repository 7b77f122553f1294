package chat

// Role decides how the connection is obtained.
type Role int

const (
	RoleListener Role = iota
	RoleConnector
)

// String returns the string representation of Role
func (r Role) String() string {
	switch r {
	case RoleListener:
		return "listener"
	case RoleConnector:
		return "connector"
	default:
		return "unknown"
	}
}
