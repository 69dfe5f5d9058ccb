package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/dashlink/internal/config"
	"github.com/MrSnakeDoc/dashlink/internal/domain"
	"github.com/MrSnakeDoc/dashlink/internal/logger"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		DBDriver:      "sqlite",
		DBDSN:         filepath.Join(dir, "dashlink.db"),
		DataDir:       filepath.Join(dir, "data"),
		IconFetchTime: time.Second,
		JWTSecret:     "0123456789abcdef0123456789abcdef",
		JWTIssuer:     "dashlink",
		TokenTTL:      time.Minute,
	}
}

func TestNewCoreWiresServices(t *testing.T) {
	ctx := context.Background()
	core, err := NewCore(testConfig(t), logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = core.Close() })

	link, err := core.Links.Create(ctx, domain.LinkInput{Title: "Wiki", URL: "https://wiki.example.com"})
	require.NoError(t, err)
	assert.True(t, link.Partition().IsGlobal())

	// the user side shares the store but not the partition
	own, err := core.UserLinks.List(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, own)

	s, err := core.Settings.All(ctx)
	require.NoError(t, err)
	assert.False(t, s.UserLinksEnabled)
}

func TestOpenDatabaseRejectsUnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.DBDriver = "mysql"
	_, err := OpenDatabase(cfg, logger.NewNop())
	assert.Error(t, err)
}

func TestJWTServiceUsesConfig(t *testing.T) {
	cfg := testConfig(t)
	svc := JWTService(cfg)

	tok, err := svc.Generate("bob", []string{"ops"}, true)
	require.NoError(t, err)
	claims, err := svc.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "bob", claims.UserID())
	assert.Equal(t, "dashlink", claims.Issuer)
	assert.True(t, claims.Admin)
}
