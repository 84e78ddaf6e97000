package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"path"
	"strings"
)

// KeyPrefix constants for different cache entry kinds
const (
	PrefixRequest = "req"
)

// RequestKey identifies a cacheable request by method, normalized URL and
// the fingerprint of its credentials. Requests made with different
// credentials never share an entry.
func RequestKey(method, rawURL, authFingerprint string) string {
	material := strings.ToUpper(method) + " " + normalizeForKey(rawURL) + " " + authFingerprint
	hash := sha256.Sum256([]byte(material))
	return PrefixRequest + ":" + hex.EncodeToString(hash[:])
}

// normalizeForKey normalizes a URL for consistent key generation
func normalizeForKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	// Normalize scheme
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	u.Scheme = strings.ToLower(u.Scheme)

	// Normalize host
	u.Host = strings.ToLower(u.Host)

	// Remove default ports
	if (u.Scheme == "http" && u.Port() == "80") ||
		(u.Scheme == "https" && u.Port() == "443") {
		u.Host = u.Hostname()
	}

	// Clean path
	if u.Path == "" {
		u.Path = "/"
	} else {
		u.Path = path.Clean(u.Path)
	}

	// Stable query order; ref= and friends are part of the identity
	if u.RawQuery != "" {
		u.RawQuery = u.Query().Encode()
	}

	// Remove fragment
	u.Fragment = ""

	return u.String()
}
