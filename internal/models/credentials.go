package models

import "strings"

// Credentials is the login form state. It is also the JSON payload posted
// to the authentication endpoint.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// Field names used by the form and its error map
const (
	FieldEmail    = "email"
	FieldPassword = "password"
)

// Fields lists the form fields in display order
var Fields = []string{FieldEmail, FieldPassword}

// Get returns the value of the named field
func (c Credentials) Get(field string) string {
	switch field {
	case FieldEmail:
		return c.Email
	case FieldPassword:
		return c.Password
	}
	return ""
}

// Set returns a copy of c with the named field replaced.
// Unknown field names leave c unchanged.
func (c Credentials) Set(field, value string) Credentials {
	switch field {
	case FieldEmail:
		c.Email = value
	case FieldPassword:
		c.Password = value
	}
	return c
}

// EmailDomain returns the part of the email after '@' for log lines.
func (c Credentials) EmailDomain() string {
	if i := strings.LastIndexByte(c.Email, '@'); i >= 0 {
		return c.Email[i:]
	}
	return "-"
}
