// Package auth turns bearer tokens into verified caller identities.
// Credential verification itself (passwords, sessions) stays with the
// external auth provider; this package only validates the token it
// issued and threads the claims through to the services.
package auth

// Identity is the verified caller handed to every core operation.
// Subject is the stable external auth subject; the display claims are
// optional and may be blank.
type Identity struct {
	Subject   string
	Name      string
	Email     string
	AvatarURL string
}

// Anonymous reports whether no verified caller is present.
func (i Identity) Anonymous() bool {
	return i.Subject == ""
}
