package session

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// Demo account accepted by DemoAuthenticator.
const (
	DemoEmail    = "demo@example.com"
	DemoPassword = "password123"
	DemoUsername = "Demo User"
)

// Authenticator decides whether a username/password pair may sign in.
// It stands in for an external identity provider.
type Authenticator interface {
	Verify(username, password string) bool
}

// DemoAuthenticator accepts exactly one fixed credential pair. The
// password is held only as a bcrypt hash.
type DemoAuthenticator struct {
	email string
	hash  []byte
}

// NewDemoAuthenticator hashes DemoPassword once at construction.
func NewDemoAuthenticator() (*DemoAuthenticator, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	return &DemoAuthenticator{email: DemoEmail, hash: hash}, nil
}

func (d *DemoAuthenticator) Verify(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(d.email)) == 1
	passOK := bcrypt.CompareHashAndPassword(d.hash, []byte(password)) == nil
	return userOK && passOK
}
