package models

// OAuthIdentity is the profile an external identity provider vouches for.
type OAuthIdentity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	AvatarURL     string
}
