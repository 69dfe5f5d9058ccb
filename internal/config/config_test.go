package config

import (
	"strings"
	"testing"
	"time"
)

func TestRequireEnv(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		value     string
		shouldSet bool
		wantPanic bool
	}{
		{
			name:      "variable set",
			key:       "DASHLINK_TEST_VAR",
			value:     "test_value",
			shouldSet: true,
			wantPanic: false,
		},
		{
			name:      "variable not set",
			key:       "DASHLINK_TEST_VAR_MISSING",
			shouldSet: false,
			wantPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shouldSet {
				t.Setenv(tt.key, tt.value)
			}

			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Errorf("requireEnv() should have panicked")
					}
				}()
			}

			result := requireEnv(tt.key)
			if !tt.wantPanic && result != tt.value {
				t.Errorf("requireEnv() = %v, want %v", result, tt.value)
			}
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected []string
	}{
		{name: "empty", value: "", expected: nil},
		{name: "single value", value: "admin:Administrators", expected: []string{"admin:Administrators"}},
		{name: "spaces and quotes", value: ` "a" , 'b',c ,, `, expected: []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := splitAndTrim(tt.value)
			if len(result) != len(tt.expected) {
				t.Fatalf("splitAndTrim() length = %v, want %v", len(result), len(tt.expected))
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("splitAndTrim()[%d] = %v, want %v", i, result[i], tt.expected[i])
				}
			}
		})
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{
			name:     "valid duration",
			key:      "DASHLINK_TEST_DURATION",
			value:    "5s",
			def:      1 * time.Second,
			expected: 5 * time.Second,
		},
		{
			name:     "invalid duration uses default",
			key:      "DASHLINK_TEST_DURATION_INVALID",
			value:    "invalid",
			def:      10 * time.Second,
			expected: 10 * time.Second,
		},
		{
			name:     "missing variable uses default",
			key:      "DASHLINK_TEST_DURATION_MISSING",
			value:    "",
			def:      15 * time.Second,
			expected: 15 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv(tt.key, tt.value)
			}

			result := mustDuration(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      bool
		expected bool
	}{
		{name: "true value", key: "DASHLINK_TEST_BOOL", value: "true", def: false, expected: true},
		{name: "false value", key: "DASHLINK_TEST_BOOL_FALSE", value: "0", def: true, expected: false},
		{name: "invalid value uses default", key: "DASHLINK_TEST_BOOL_INVALID", value: "nope", def: true, expected: true},
		{name: "missing variable uses default", key: "DASHLINK_TEST_BOOL_MISSING", value: "", def: false, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv(tt.key, tt.value)
			}

			result := mustBool(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustBool() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DASHLINK_BASE_URL", "https://dash.example.com/")
	t.Setenv("DASHLINK_JWT_SECRET", strings.Repeat("s", 32))
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg := Load()

	if cfg.BaseURL != "https://dash.example.com" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", cfg.BaseURL)
	}
	if cfg.DBDriver != "sqlite" {
		t.Errorf("DBDriver = %q, want sqlite", cfg.DBDriver)
	}
	if cfg.IconFetchTime != 10*time.Second {
		t.Errorf("IconFetchTime = %v, want 10s", cfg.IconFetchTime)
	}
	if cfg.IconMaxRedirect != 3 {
		t.Errorf("IconMaxRedirect = %d, want 3", cfg.IconMaxRedirect)
	}
	if cfg.RedisEnabled() {
		t.Error("RedisEnabled() = true without DASHLINK_REDIS_ADDR")
	}
}

func TestLoadPanicsOnBadDriver(t *testing.T) {
	setRequired(t)
	t.Setenv("DASHLINK_DB_DRIVER", "mysql")

	defer func() {
		if r := recover(); r == nil {
			t.Error("Load() should have panicked on unsupported driver")
		}
	}()
	Load()
}

func TestValidate(t *testing.T) {
	base := Config{
		DBDriver:       "postgres",
		JWTSecret:      strings.Repeat("x", 32),
		RequestTimeout: 15 * time.Second,
		IconFetchTime:  10 * time.Second,
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "short secret", mutate: func(c *Config) { c.JWTSecret = "short" }, wantErr: true},
		{name: "negative redirects", mutate: func(c *Config) { c.IconMaxRedirect = -1 }, wantErr: true},
		{name: "request timeout too short", mutate: func(c *Config) { c.RequestTimeout = 5 * time.Second }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRedacted(t *testing.T) {
	c := Config{JWTSecret: "secret", RedisPassword: "pw", DBDriver: "postgres", DBDSN: "host=db password=pw"}
	r := c.Redacted()
	if r.JWTSecret == "secret" || r.RedisPassword == "pw" || strings.Contains(r.DBDSN, "pw") {
		t.Errorf("Redacted() leaked secrets: %+v", r)
	}
	if c.JWTSecret != "secret" {
		t.Error("Redacted() mutated the receiver")
	}
}
