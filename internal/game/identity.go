package game

// Identity is who a connection claims to be. Authentication enriches an
// identity with a stable user id; it is never required to play.
type Identity interface {
	DisplayName() string
	isIdentity()
}

type GuestIdentity struct {
	Name string
}

func (g GuestIdentity) DisplayName() string { return g.Name }
func (GuestIdentity) isIdentity()           {}

type AuthenticatedIdentity struct {
	Name   string
	UserID string
}

func (a AuthenticatedIdentity) DisplayName() string { return a.Name }
func (AuthenticatedIdentity) isIdentity()           {}
