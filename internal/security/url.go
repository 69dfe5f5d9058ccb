package security

import (
	"context"
	"net"
	"net/netip"
	"net/url"
	"strings"

	"github.com/MrSnakeDoc/dashlink/internal/domain"
)

// Resolver looks up host addresses. *net.Resolver satisfies it.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

var (
	blockedHosts = []string{
		"metadata.google.internal",
		"169.254.169.254",
		"instance-data",
		"metadata.azure.com",
		"metadata.packet.net",
	}

	localhostPrefixes = []string{"localhost", "127.", "0.0.0.0", "::1", "[::1]"}

	// Ranges not covered by the netip predicates.
	reservedPrefixes = []netip.Prefix{
		netip.MustParsePrefix("0.0.0.0/8"),
		netip.MustParsePrefix("100.64.0.0/10"),
		netip.MustParsePrefix("192.0.0.0/24"),
		netip.MustParsePrefix("192.0.2.0/24"),
		netip.MustParsePrefix("198.18.0.0/15"),
		netip.MustParsePrefix("198.51.100.0/24"),
		netip.MustParsePrefix("203.0.113.0/24"),
		netip.MustParsePrefix("240.0.0.0/4"),
		netip.MustParsePrefix("64:ff9b::/96"),
		netip.MustParsePrefix("100::/64"),
		netip.MustParsePrefix("2001:db8::/32"),
	}
)

// ValidateURL accepts absolute http(s) URLs with a host.
func ValidateURL(raw string) error {
	_, err := parseHTTPURL(raw)
	return err
}

// NormalizeURL validates raw and returns it trimmed.
func NormalizeURL(raw string) (string, error) {
	if _, err := parseHTTPURL(raw); err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}

func parseHTTPURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, domain.Invalid("URL cannot be empty")
	}
	if len(raw) > domain.MaxURLLength {
		return nil, domain.Invalid("URL must not exceed %d characters", domain.MaxURLLength)
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || strings.ContainsAny(raw, " \t\r\n") {
		return nil, domain.Invalid("Invalid URL format")
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, domain.Invalid("Only HTTP and HTTPS URLs are allowed. Blocked protocol: %s", scheme)
	}
	if u.Opaque != "" {
		return nil, domain.Invalid("Invalid URL format")
	}

	if u.Hostname() == "" {
		return nil, domain.Invalid("URL must include a valid hostname")
	}
	return u, nil
}

// ValidateDownloadURL is ValidateURL plus the SSRF boundary: the host must
// not be a localhost or cloud-metadata name, and every address it resolves
// to must be publicly routable.
func ValidateDownloadURL(ctx context.Context, resolver Resolver, raw string) error {
	u, err := parseHTTPURL(raw)
	if err != nil {
		return err
	}

	host := strings.ToLower(strings.TrimSuffix(u.Hostname(), "."))
	if IsBlockedHost(host) {
		return domain.Invalid("Access to this host is not allowed")
	}

	if resolver == nil {
		resolver = net.DefaultResolver
	}
	addrs, err := resolver.LookupIPAddr(ctx, host)
	if err != nil || len(addrs) == 0 {
		return domain.Invalid("Could not resolve hostname: %s", host)
	}
	for _, a := range addrs {
		ip, ok := netip.AddrFromSlice(a.IP)
		if !ok || IsBlockedIP(ip) {
			return domain.Invalid("Access to private or reserved IP addresses is not allowed")
		}
	}
	return nil
}

// IsBlockedHost matches the metadata deny-list and localhost patterns.
func IsBlockedHost(host string) bool {
	host = strings.ToLower(host)
	for _, b := range blockedHosts {
		if host == b || strings.HasSuffix(host, "."+b) {
			return true
		}
	}
	for _, p := range localhostPrefixes {
		if strings.HasPrefix(host, p) {
			return true
		}
	}
	return strings.HasSuffix(host, ".localhost") || strings.HasPrefix(host, "169.254.")
}

// IsBlockedIP reports addresses an outbound fetch must never reach.
func IsBlockedIP(ip netip.Addr) bool {
	ip = ip.Unmap()
	if !ip.IsValid() ||
		ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() ||
		ip.IsMulticast() ||
		ip.IsUnspecified() {
		return true
	}
	if ip == netip.AddrFrom4([4]byte{255, 255, 255, 255}) {
		return true
	}
	for _, p := range reservedPrefixes {
		if p.Contains(ip) {
			return true
		}
	}
	return false
}
