// Package identity exposes the authenticated caller's contact defaults,
// used only to pre-fill the shipping form. The orchestrator itself never
// requires it.
package identity

import "net/http"

// Profile holds the contact defaults of the authenticated caller.
type Profile struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

// Provider supplies the caller's profile for a request. The real identity
// service sits upstream; this collaborator only reads what it forwarded.
type Provider interface {
	FromRequest(r *http.Request) (Profile, bool)
}

var _ Provider = (*HeaderProvider)(nil)

// HeaderProvider reads the profile from headers set by the upstream
// authentication proxy.
type HeaderProvider struct{}

// NewHeaderProvider returns a HeaderProvider.
func NewHeaderProvider() *HeaderProvider {
	return &HeaderProvider{}
}

// FromRequest extracts the forwarded profile. The second return is false
// when the request carries no identity.
func (p *HeaderProvider) FromRequest(r *http.Request) (Profile, bool) {
	email := r.Header.Get("X-Auth-Email")
	if email == "" {
		return Profile{}, false
	}
	return Profile{
		Email:    email,
		FullName: r.Header.Get("X-Auth-Name"),
	}, true
}
