package resolve

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/http"

	"github.com/quantmind-br/repo2llm/internal/domain"
)

// CredentialKind names the credential shape in use
type CredentialKind string

// Credential kinds
const (
	CredentialNone  CredentialKind = "none"
	CredentialToken CredentialKind = "token"
	CredentialBasic CredentialKind = "basic"
)

// AnonymousFingerprint is the cache fingerprint of unauthenticated requests
const AnonymousFingerprint = "anonymous"

// Credentials is the per-run authorization material.
type Credentials struct {
	kind     CredentialKind
	header   string
	username string
	secret   string
}

// ResolveCredentials converts configured auth into header material.
// A token takes precedence over username and password.
func ResolveCredentials(auth domain.Auth) (Credentials, error) {
	switch {
	case auth.Token != "":
		return Credentials{
			kind:     CredentialToken,
			header:   "token " + auth.Token,
			username: "x-access-token",
			secret:   auth.Token,
		}, nil
	case auth.Username != "" && auth.Password != "":
		raw := auth.Username + ":" + auth.Password
		return Credentials{
			kind:     CredentialBasic,
			header:   "Basic " + base64.StdEncoding.EncodeToString([]byte(raw)),
			username: auth.Username,
			secret:   auth.Password,
		}, nil
	case auth.Username != "" || auth.Password != "":
		return Credentials{}, domain.NewValidationError("auth", "username and password must be given together")
	}
	return Credentials{kind: CredentialNone}, nil
}

// Kind returns the credential shape
func (c Credentials) Kind() CredentialKind {
	if c.kind == "" {
		return CredentialNone
	}
	return c.kind
}

// Authenticated returns true when an authorization header is sent
func (c Credentials) Authenticated() bool {
	return c.header != ""
}

// Header returns the Authorization header value, "" when anonymous
func (c Credentials) Header() string {
	return c.header
}

// Apply sets the Authorization header on req
func (c Credentials) Apply(req *http.Request) {
	if c.header != "" {
		req.Header.Set("Authorization", c.header)
	}
}

// Fingerprint is a stable hash of the header, used in cache keys so that
// the header itself never reaches a key.
func (c Credentials) Fingerprint() string {
	if c.header == "" {
		return AnonymousFingerprint
	}
	sum := sha256.Sum256([]byte(c.header))
	return hex.EncodeToString(sum[:8])
}

// BasicAuth returns username and password for git-over-HTTPS
func (c Credentials) BasicAuth() (username, password string, ok bool) {
	if c.header == "" {
		return "", "", false
	}
	return c.username, c.secret, true
}

// String never prints the secret
func (c Credentials) String() string {
	if c.header == "" {
		return "credentials(none)"
	}
	return "credentials(" + string(c.kind) + ", " + c.Fingerprint() + ")"
}
