package security

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/MrSnakeDoc/dashlink/internal/domain"
)

type fakeResolver map[string][]string

func (f fakeResolver) LookupIPAddr(_ context.Context, host string) ([]net.IPAddr, error) {
	if ip := net.ParseIP(host); ip != nil {
		return []net.IPAddr{{IP: ip}}, nil
	}
	addrs, ok := f[host]
	if !ok {
		return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
	}
	out := make([]net.IPAddr, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, net.IPAddr{IP: net.ParseIP(a)})
	}
	return out, nil
}

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{name: "plain", input: "  Grafana  ", max: 255, want: "Grafana"},
		{name: "strips tags", input: "<b>Bold</b> text", max: 255, want: "Bold text"},
		{name: "drops scripts", input: "a<script>alert(1)</script>b", max: 255, want: "ab"},
		{name: "encodes quotes", input: `Tom's "place"`, max: 255, want: "Tom&#39;s &#34;place&#34;"},
		{name: "encodes stray brackets", input: "a < b", max: 255, want: "a &lt; b"},
		{name: "truncates by runes", input: "héllo wörld", max: 5, want: "héllo"},
		{name: "default limit", input: strings.Repeat("x", 300), max: 0, want: strings.Repeat("x", DefaultTextLength)},
		{name: "empty", input: "   ", max: 10, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeText(tt.input, tt.max); got != tt.want {
				t.Errorf("SanitizeText(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
			}
		})
	}
}

func TestSanitizeTextNeverEmitsMarkup(t *testing.T) {
	inputs := []string{
		"<img src=x onerror=alert(1)>",
		"<<script>>",
		"&lt;b&gt;",
		"<a href='javascript:alert(1)'>x</a> > <",
		"<!-- comment --><p>para</p>",
		strings.Repeat("<i>", 200),
		"日本語<b>テキスト</b>",
	}
	limits := []int{1, 3, 10, 255}

	for _, in := range inputs {
		for _, l := range limits {
			got := SanitizeText(in, l)
			if strings.ContainsAny(got, "<>") {
				t.Errorf("SanitizeText(%q, %d) = %q contains markup", in, l, got)
			}
			if n := utf8.RuneCountInString(got); n > l {
				t.Errorf("SanitizeText(%q, %d) has %d runes", in, l, n)
			}
		}
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr string
	}{
		{url: "http://example.com"},
		{url: "https://example.com"},
		{url: "HTTPS://Example.com/path?q=1"},
		{url: "", wantErr: "URL cannot be empty"},
		{url: "example.com", wantErr: "Invalid URL format"},
		{url: "//example.com", wantErr: "Invalid URL format"},
		{url: "ftp://example.com", wantErr: "Blocked protocol: ftp"},
		{url: "javascript:alert(1)", wantErr: "Blocked protocol: javascript"},
		{url: "file:///etc/passwd", wantErr: "Blocked protocol: file"},
		{url: "http://", wantErr: "valid hostname"},
		{url: "http://exa mple.com", wantErr: "Invalid URL format"},
		{url: "https://" + strings.Repeat("a", 2100) + ".com", wantErr: "must not exceed"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("ValidateURL(%q) error = %v, want nil", tt.url, err)
				}
				return
			}
			if err == nil {
				t.Fatalf("ValidateURL(%q) = nil, want error containing %q", tt.url, tt.wantErr)
			}
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("ValidateURL(%q) error kind = %v, want validation", tt.url, domain.KindOf(err))
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidateURL(%q) error = %q, want containing %q", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestValidateDownloadURL(t *testing.T) {
	resolver := fakeResolver{
		"example.com":        {"93.184.216.34"},
		"icons.example.org":  {"2606:4700::6810:84e5"},
		"rebind.example.com": {"93.184.216.34", "10.0.0.7"},
		"internal.corp":      {"192.168.1.20"},
	}

	tests := []struct {
		url     string
		wantErr bool
	}{
		{url: "http://127.0.0.1/x", wantErr: true},
		{url: "http://169.254.169.254/latest/meta-data", wantErr: true},
		{url: "http://localhost/", wantErr: true},
		{url: "http://LOCALHOST:8080/", wantErr: true},
		{url: "http://[::1]/", wantErr: true},
		{url: "http://0.0.0.0/", wantErr: true},
		{url: "http://metadata.google.internal/computeMetadata/v1/", wantErr: true},
		{url: "http://169.254.10.10/", wantErr: true},
		{url: "http://10.1.2.3/icon.png", wantErr: true},
		{url: "http://100.64.0.1/", wantErr: true},
		{url: "http://[fe80::1]/", wantErr: true},
		{url: "http://[::ffff:127.0.0.1]/", wantErr: true},
		{url: "http://internal.corp/favicon.ico", wantErr: true},
		{url: "http://rebind.example.com/", wantErr: true},
		{url: "http://unknown.invalid/", wantErr: true},
		{url: "gopher://example.com/", wantErr: true},
		{url: "https://example.com/favicon.ico"},
		{url: "https://icons.example.org/logo.svg"},
		{url: "http://93.184.216.34/logo.png"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := ValidateDownloadURL(context.Background(), resolver, tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDownloadURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrValidation) {
				t.Errorf("ValidateDownloadURL(%q) error kind = %v, want validation", tt.url, domain.KindOf(err))
			}
		})
	}
}

func TestIsBlockedIP(t *testing.T) {
	tests := []struct {
		ip   string
		want bool
	}{
		{"127.0.0.1", true},
		{"10.0.0.1", true},
		{"172.16.5.4", true},
		{"192.168.0.1", true},
		{"169.254.169.254", true},
		{"0.0.0.0", true},
		{"255.255.255.255", true},
		{"224.0.0.1", true},
		{"198.18.0.1", true},
		{"::1", true},
		{"fc00::1", true},
		{"2001:db8::1", true},
		{"8.8.8.8", false},
		{"93.184.216.34", false},
		{"2606:4700::6810:84e5", false},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			if got := IsBlockedIP(netip.MustParseAddr(tt.ip)); got != tt.want {
				t.Errorf("IsBlockedIP(%s) = %v, want %v", tt.ip, got, tt.want)
			}
		})
	}
}

func TestValidateTarget(t *testing.T) {
	for _, ok := range []string{"_blank", "_self"} {
		if err := ValidateTarget(ok); err != nil {
			t.Errorf("ValidateTarget(%q) = %v, want nil", ok, err)
		}
	}
	for _, bad := range []string{"", "_parent", "_top", "blank", "_BLANK"} {
		if err := ValidateTarget(bad); err == nil {
			t.Errorf("ValidateTarget(%q) = nil, want error", bad)
		}
	}
}

func TestValidateGroups(t *testing.T) {
	tests := []struct {
		name    string
		groups  []string
		wantErr bool
	}{
		{name: "nil", groups: nil},
		{name: "valid", groups: []string{"admin", "dev-team", "group_2"}},
		{name: "empty id", groups: []string{"admin", ""}, wantErr: true},
		{name: "space", groups: []string{"dev team"}, wantErr: true},
		{name: "markup", groups: []string{"<script>"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGroups(tt.groups)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateGroups(%v) error = %v, wantErr %v", tt.groups, err, tt.wantErr)
			}
		})
	}
}

func TestValidateFilename(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		icon     bool
		wantErr  bool
	}{
		{name: "plain", filename: "logo.png"},
		{name: "icon", filename: "icon_12_1700000000_ab12cd34.png", icon: true},
		{name: "empty", filename: "", wantErr: true},
		{name: "traversal", filename: "..", wantErr: true},
		{name: "embedded traversal", filename: "icon_..png", icon: true, wantErr: true},
		{name: "slash", filename: "icons/a.png", wantErr: true},
		{name: "backslash", filename: `icons\a.png`, wantErr: true},
		{name: "null byte", filename: "icon_1.png\x00.svg", wantErr: true},
		{name: "unicode", filename: "icône.png", wantErr: true},
		{name: "missing prefix", filename: "logo.png", icon: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			if tt.icon {
				err = ValidateIconFilename(tt.filename)
			} else {
				err = ValidateFilename(tt.filename)
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("validate(%q) error = %v, wantErr %v", tt.filename, err, tt.wantErr)
			}
		})
	}
}

func TestValidateInteger(t *testing.T) {
	if err := ValidateInteger(1, 1, 50); err != nil {
		t.Errorf("ValidateInteger(1,1,50) = %v", err)
	}
	if err := ValidateInteger(50, 1, 50); err != nil {
		t.Errorf("ValidateInteger(50,1,50) = %v", err)
	}
	if err := ValidateInteger(0, 1, 50); err == nil {
		t.Error("ValidateInteger(0,1,50) = nil, want error")
	}
	if err := ValidateInteger(51, 1, 50); err == nil {
		t.Error("ValidateInteger(51,1,50) = nil, want error")
	}
}

func TestSanitizeSVG(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantErr    bool
		contains   []string
		notContain []string
	}{
		{
			name:     "keeps shapes and camel case",
			input:    `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10"><linearGradient id="g"><stop offset="0" stop-color="red"/></linearGradient><rect width="10" height="10" fill="url(#g)"/></svg>`,
			contains: []string{`viewBox="0 0 10 10"`, "<linearGradient", `fill="url(#g)"`, "<rect"},
		},
		{
			name:       "drops script subtree",
			input:      `<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script><circle r="1"/></svg>`,
			contains:   []string{"<circle"},
			notContain: []string{"script", "alert"},
		},
		{
			name:       "drops event handlers",
			input:      `<svg xmlns="http://www.w3.org/2000/svg" onload="alert(1)"><path d="M0 0" onclick="x()"/></svg>`,
			contains:   []string{`d="M0 0"`},
			notContain: []string{"onload", "onclick"},
		},
		{
			name:       "drops foreign object",
			input:      `<svg xmlns="http://www.w3.org/2000/svg"><foreignObject><iframe src="https://evil"/></foreignObject><g/></svg>`,
			notContain: []string{"foreignObject", "iframe", "evil"},
		},
		{
			name:       "drops external href",
			input:      `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink"><use xlink:href="https://evil/x.svg#a"/><use href="#local"/></svg>`,
			contains:   []string{`href="#local"`},
			notContain: []string{"evil"},
		},
		{
			name:       "drops javascript urls in style",
			input:      `<svg xmlns="http://www.w3.org/2000/svg"><rect style="fill:url(javascript:alert(1))"/></svg>`,
			notContain: []string{"javascript"},
		},
		{
			name:       "drops doctype and comments",
			input:      `<?xml version="1.0"?><!DOCTYPE svg [<!ENTITY x "y">]><!-- c --><svg xmlns="http://www.w3.org/2000/svg"><g/></svg>`,
			notContain: []string{"DOCTYPE", "ENTITY", "<!--", "<?xml"},
		},
		{name: "not svg", input: `<html><body/></html>`, wantErr: true},
		{name: "malformed", input: `<svg><g></svg>`, wantErr: true},
		{name: "empty", input: ``, wantErr: true},
		{name: "entity expansion", input: `<!DOCTYPE svg [<!ENTITY a "aaaa">]><svg>&a;</svg>`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := SanitizeSVG([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("SanitizeSVG() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			s := string(out)
			for _, c := range tt.contains {
				if !strings.Contains(s, c) {
					t.Errorf("SanitizeSVG() = %s, missing %q", s, c)
				}
			}
			for _, c := range tt.notContain {
				if strings.Contains(s, c) {
					t.Errorf("SanitizeSVG() = %s, should not contain %q", s, c)
				}
			}
		})
	}
}
