package core

// Identity is the authenticated user bound to a connection. It is an
// immutable snapshot taken at authentication time; events never re-fetch it.
type Identity struct {
	ID       string
	Username string
	Avatar   string
}
