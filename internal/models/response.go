package models

// LoginResponse is the body returned by the authentication endpoint on success
type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// User is the account object embedded in a LoginResponse. Only Firstname is
// required by the login flow; the rest is carried through for display.
type User struct {
	ID        string `json:"_id,omitempty"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname,omitempty"`
	Email     string `json:"email,omitempty"`
}

// HasSession reports whether the response carries everything needed to
// persist a session: a token and a user whose first name passes
// ValidUsername.
func (r *LoginResponse) HasSession() bool {
	return r != nil && r.Token != "" && r.User != nil && ValidUsername(r.User.Firstname)
}
