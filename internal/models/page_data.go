package models

import "net/url"

// LoginPageData represents the form-specific data passed to the login
// template: field values to repopulate, field banners and the links under
// the form.
type LoginPageData struct {
	// Email is the value to pre-populate in the form after a failed attempt.
	// The password is never echoed back.
	Email string

	// Errors maps a field name to its validation message.
	// Only failing fields are present.
	Errors map[string]string

	// ForgetPasswordPath and RegisterPath are the links under the form
	ForgetPasswordPath string
	RegisterPath       string
}

// NewLoginPageData returns page data for an empty form
func NewLoginPageData() *LoginPageData {
	return &LoginPageData{
		Errors:             map[string]string{},
		ForgetPasswordPath: ForgetPasswordPath,
		RegisterPath:       RegisterPath,
	}
}

// Routes referenced by the login page but served elsewhere
const (
	LoginPath          = "/login"
	ForgetPasswordPath = "/forget_password"
	RegisterPath       = "/register"
)

// ProfilePath returns the route keyed by a user's first name
func ProfilePath(firstname string) string {
	return "/" + url.PathEscape(firstname)
}
