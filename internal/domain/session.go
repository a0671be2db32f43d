package domain

// Session identifies the signed-in user making a call. Services take it as an
// explicit argument; the zero value means nobody is signed in.
type Session struct {
	UserID string
}

// Authenticated reports whether the session belongs to a user.
func (s Session) Authenticated() bool {
	return s.UserID != ""
}
