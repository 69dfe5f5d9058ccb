package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/dashlink/internal/ratelimit"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client), mr
}

func TestStoreCounter(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)

	if n, err := s.Get(ctx, "k"); err != nil || n != 0 {
		t.Fatalf("Get(missing) = %d, %v; want 0, nil", n, err)
	}

	for want := int64(1); want <= 3; want++ {
		n, err := s.Incr(ctx, "k", time.Minute)
		if err != nil {
			t.Fatalf("Incr() error = %v", err)
		}
		if n != want {
			t.Errorf("Incr() = %d, want %d", n, want)
		}
	}

	if ttl := mr.TTL("k"); ttl != time.Minute {
		t.Errorf("TTL = %v, want 1m", ttl)
	}

	mr.FastForward(30 * time.Second)
	if _, err := s.Incr(ctx, "k", time.Minute); err != nil {
		t.Fatalf("Incr() error = %v", err)
	}
	if ttl := mr.TTL("k"); ttl != 30*time.Second {
		t.Errorf("TTL after later Incr = %v, want 30s (not refreshed)", ttl)
	}

	if err := s.Del(ctx, "k"); err != nil {
		t.Fatalf("Del() error = %v", err)
	}
	if mr.Exists("k") {
		t.Error("key still exists after Del")
	}
}

func TestStoreBacksLimiter(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)
	l := ratelimit.New(s)

	for i := 1; i <= 3; i++ {
		limited, err := l.Check(ctx, ratelimit.UserLinkImport, "u1")
		if err != nil || limited {
			t.Fatalf("call %d: Check() = %v, %v; want false, nil", i, limited, err)
		}
	}
	if limited, _ := l.Check(ctx, ratelimit.UserLinkImport, "u1"); !limited {
		t.Fatal("fourth import should be limited")
	}

	mr.FastForward(time.Hour)
	if limited, _ := l.Check(ctx, ratelimit.UserLinkImport, "u1"); limited {
		t.Error("limit should reset after the window")
	}
}

func TestStorePing(t *testing.T) {
	s, mr := newTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	mr.Close()
	if err := s.Ping(context.Background()); err == nil {
		t.Error("Ping() = nil after server shutdown")
	}
}
