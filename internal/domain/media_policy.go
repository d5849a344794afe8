package domain

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrMediaHostNotAllowed is returned for extracted media URLs outside the policy
var ErrMediaHostNotAllowed = errors.New("media host not allowed")

// MediaHostPolicy limits which hosts a scraped media URL may point at.
// A host matches an entry when it equals it or is a subdomain of it.
type MediaHostPolicy struct {
	Hosts     []string
	AllowHTTP bool
}

// Check returns ErrMediaHostNotAllowed unless rawURL may be relayed
func (p MediaHostPolicy) Check(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMediaHostNotAllowed, err)
	}

	switch u.Scheme {
	case "https":
	case "http":
		if !p.AllowHTTP {
			return fmt.Errorf("%w: plain http %s", ErrMediaHostNotAllowed, u.Host)
		}
	default:
		return fmt.Errorf("%w: scheme %q", ErrMediaHostNotAllowed, u.Scheme)
	}

	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		return fmt.Errorf("%w: missing host", ErrMediaHostNotAllowed)
	}

	for _, allowed := range p.Hosts {
		allowed = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(allowed)), ".")
		if allowed == "" {
			continue
		}
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrMediaHostNotAllowed, host)
}
