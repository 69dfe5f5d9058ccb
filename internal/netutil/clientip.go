// Package netutil resolves client addresses and matches them against
// operator-supplied allow-lists.
package netutil

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// forwardingHeaders are consulted in order when a trusted proxy sits in
// front of the server.
var forwardingHeaders = []string{"CF-Connecting-IP", "X-Forwarded-For", "X-Real-IP"}

// ClientIP returns the caller's address. With trustProxy the first valid
// address from the forwarding headers wins; otherwise only RemoteAddr
// counts, so clients cannot spoof their way past an allow-list.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		for _, h := range forwardingHeaders {
			v := r.Header.Get(h)
			if i := strings.IndexByte(v, ','); i >= 0 {
				v = v[:i]
			}
			if addr, ok := parseAddr(v); ok {
				return addr.String()
			}
		}
	}
	if addr, ok := parseAddr(r.RemoteAddr); ok {
		return addr.String()
	}
	return hostOnly(r.RemoteAddr)
}

func hostOnly(s string) string {
	if h, _, err := net.SplitHostPort(s); err == nil {
		return h
	}
	return s
}

// parseAddr accepts "ip", "ip:port" and "[v6]:port".
func parseAddr(s string) (netip.Addr, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return netip.Addr{}, false
	}
	addr, err := netip.ParseAddr(hostOnly(s))
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.WithZone("").Unmap(), true
}

// Matcher holds prefixes; single addresses are stored as full-length
// prefixes.
type Matcher struct {
	prefixes []netip.Prefix
}

// ParseMatcher builds a Matcher and returns the entries it could not parse.
func ParseMatcher(list []string) (*Matcher, []string) {
	m := &Matcher{}
	var invalid []string
	for _, raw := range list {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		if p, err := netip.ParsePrefix(s); err == nil {
			m.prefixes = append(m.prefixes, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(s); err == nil {
			a = a.Unmap()
			m.prefixes = append(m.prefixes, netip.PrefixFrom(a, a.BitLen()))
			continue
		}
		invalid = append(invalid, s)
	}
	return m, invalid
}

func (m *Matcher) IsEmpty() bool {
	return len(m.prefixes) == 0
}

func (m *Matcher) Allow(ip string) bool {
	addr, ok := parseAddr(ip)
	if !ok {
		return false
	}
	for _, p := range m.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
