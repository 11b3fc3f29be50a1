package shortener

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// NormalizeURL validates and normalizes a URL so equivalent inputs share a hash.
// - Only absolute http and https URLs are accepted
// - Lowercases the scheme and host
// - Removes default ports (80 for http, 443 for https)
// - Removes trailing slashes from path (unless path is just "/")
// - Removes the fragment
func NormalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", reject(ErrInvalidURL, rawURL, 0)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", reject(ErrInvalidURL, rawURL, 0)
	}

	host := u.Host
	if strings.HasSuffix(host, ":80") && u.Scheme == "http" {
		u.Host = strings.TrimSuffix(host, ":80")
	} else if strings.HasSuffix(host, ":443") && u.Scheme == "https" {
		u.Host = strings.TrimSuffix(host, ":443")
	}

	if len(u.Path) > 1 && strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	u.Fragment = ""
	u.RawFragment = ""

	return u.String(), nil
}

// HashURL derives the short key of a normalized URL: the top 48 bits of its
// xxhash64 digest, hex encoded.
func HashURL(normalizedURL string) Hash {
	return Hash(fmt.Sprintf("%012x", xxhash.Sum64String(normalizedURL)>>16))
}
