// Package netutil holds small helpers for working with bridge endpoint URLs.
package netutil

import (
	"fmt"
	"net/url"
)

// ValidateBridgeURL checks that a native bridge endpoint is a usable
// websocket URL: ws or wss scheme and a host.
func ValidateBridgeURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid bridge URL: %w", err)
	}
	switch parsed.Scheme {
	case "ws", "wss":
	default:
		return fmt.Errorf("bridge URL scheme must be ws or wss, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("bridge URL has no host")
	}
	return nil
}

// StripCredentials removes user:password@ from a URL for safe logging.
// Returns the original string if the URL cannot be parsed.
func StripCredentials(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	parsed.User = nil
	return parsed.String()
}
