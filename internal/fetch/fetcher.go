// Package fetch downloads remote icons. Every connection, including the
// ones opened while following redirects, is refused when the resolved
// address is private or reserved.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/dashlink/internal/domain"
	"github.com/MrSnakeDoc/dashlink/internal/logger"
	"github.com/MrSnakeDoc/dashlink/internal/security"
)

const (
	DefaultUserAgent    = "DashLink/1.0"
	DefaultMaxBytes     = 2 * 1024 * 1024
	DefaultMaxRedirects = 3

	// NoRedirects refuses every redirect; a zero MaxRedirects selects
	// DefaultMaxRedirects instead.
	NoRedirects = -1
)

var errBlockedAddress = errors.New("connection to a private or reserved address refused")

type Options struct {
	Timeout      time.Duration
	MaxRedirects int
	MaxBytes     int64
	UserAgent    string
	Resolver     security.Resolver
}

// Result is a downloaded body. Data holds at most MaxBytes+1 bytes so the
// caller can tell an oversized file from one that fits exactly.
type Result struct {
	Data        []byte
	ContentType string
	FinalURL    string
}

type Fetcher struct {
	client    *http.Client
	opts      Options
	log       logger.Logger
	validate  func(ctx context.Context, rawURL string) error
	addrGuard func(netip.Addr) bool
}

func New(opts Options, log logger.Logger) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	switch {
	case opts.MaxRedirects == 0:
		opts.MaxRedirects = DefaultMaxRedirects
	case opts.MaxRedirects < 0:
		opts.MaxRedirects = 0
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	f := &Fetcher{opts: opts, log: log, addrGuard: security.IsBlockedIP}
	f.validate = func(ctx context.Context, rawURL string) error {
		return security.ValidateDownloadURL(ctx, opts.Resolver, rawURL)
	}

	dialer := &net.Dialer{
		Timeout:   opts.Timeout,
		KeepAlive: 0,
		Control:   f.control,
	}

	f.client = &http.Client{
		Timeout: opts.Timeout,
		Transport: &http.Transport{
			Proxy:                  nil,
			DialContext:            dialer.DialContext,
			TLSHandshakeTimeout:    opts.Timeout,
			ResponseHeaderTimeout:  opts.Timeout,
			DisableKeepAlives:      true,
			MaxResponseHeaderBytes: 64 << 10,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > f.opts.MaxRedirects {
				return fmt.Errorf("stopped after %d redirects", f.opts.MaxRedirects)
			}
			return f.validate(req.Context(), req.URL.String())
		},
	}
	return f
}

// control runs after DNS resolution, right before connect, so it sees the
// address actually dialed.
func (f *Fetcher) control(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip, err := netip.ParseAddr(host)
	if err != nil {
		return fmt.Errorf("unexpected dial address %q: %w", address, err)
	}
	if f.addrGuard(ip) {
		return errBlockedAddress
	}
	return nil
}

// Fetch validates rawURL and downloads it.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	if err := f.validate(ctx, rawURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, domain.Invalid("Invalid URL format")
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "image/*")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		var de *domain.Error
		if errors.As(err, &de) {
			return nil, de
		}
		f.log.Warn("icon download failed", logger.String("url", rawURL), logger.Error(err))
		return nil, domain.UpstreamFetch(err, "Failed to download icon from URL")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, domain.UpstreamFetch(fmt.Errorf("status %d", resp.StatusCode), "Failed to download icon from URL")
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.MaxBytes+1))
	if err != nil {
		return nil, domain.UpstreamFetch(err, "Failed to download icon from URL")
	}

	f.log.Debug("icon downloaded",
		logger.String("url", rawURL),
		logger.Int("bytes", len(data)),
		logger.Duration("elapsed", time.Since(start)))

	return &Result{
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
		FinalURL:    resp.Request.URL.String(),
	}, nil
}
