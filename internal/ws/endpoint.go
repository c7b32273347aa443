package ws

import (
	"fmt"
	"net/url"
	"strings"
)

// ChatPath is where the chat server accepts WebSocket upgrades.
const ChatPath = "/ws/chat"

// EndpointURL maps the configured HTTP base URL to the chat WebSocket URL:
// http becomes ws, https becomes wss, and ChatPath is appended to any base
// path.
func EndpointURL(baseURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return "", fmt.Errorf("url.Parse: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q in %q", u.Scheme, baseURL)
	}

	if u.Host == "" {
		return "", fmt.Errorf("missing host in %q", baseURL)
	}

	u.Path = strings.TrimRight(u.Path, "/") + ChatPath
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""

	return u.String(), nil
}
