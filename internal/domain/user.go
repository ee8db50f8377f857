package domain

import "strings"

const RoleAdmin = "admin"

// Actor is the already-authenticated caller handed in by the HTTP
// layer. The zero value means no actor.
type Actor struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (a Actor) IsAdmin() bool {
	return strings.EqualFold(a.Role, RoleAdmin)
}

// Known reports whether the actor carries at least an identifier or an
// email. Anonymous actors are rejected by every order operation.
func (a Actor) Known() bool {
	return a.ID != "" || a.Email != ""
}

// SeedUser is a dev/test login entry; seed logins are refused in
// production.
type SeedUser struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}
