package browser

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gobwas/glob"
)

// hostMatcher restricts navigation to hosts matching a set of glob patterns.
type hostMatcher struct {
	patterns []glob.Glob
}

func newHostMatcher(patterns []string) (*hostMatcher, error) {
	m := &hostMatcher{}
	for _, pattern := range patterns {
		g, err := glob.Compile(strings.ToLower(pattern), '.')
		if err != nil {
			return nil, fmt.Errorf("invalid host pattern '%s': %w", pattern, err)
		}
		m.patterns = append(m.patterns, g)
	}
	return m, nil
}

// check returns ErrURLNotAllowed when rawURL cannot be parsed or its host
// matches no pattern. A matcher without patterns allows every URL.
func (m *hostMatcher) check(rawURL string) error {
	if len(m.patterns) == 0 {
		return nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrURLNotAllowed, err)
	}

	host := strings.ToLower(u.Hostname())
	for _, g := range m.patterns {
		if g.Match(host) {
			return nil
		}
	}
	return fmt.Errorf("%w: host %q", ErrURLNotAllowed, host)
}
