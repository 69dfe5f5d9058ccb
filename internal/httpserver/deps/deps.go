package deps

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/MrSnakeDoc/dashlink/internal/auth"
	"github.com/MrSnakeDoc/dashlink/internal/groups"
	"github.com/MrSnakeDoc/dashlink/internal/logger"
	"github.com/MrSnakeDoc/dashlink/internal/ratelimit"
	"github.com/MrSnakeDoc/dashlink/internal/service"
)

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	BaseURL      string   // absolute prefix of icon URLs, no trailing slash
	AllowedHosts []string // Host headers allowed to access the server
	AllowedCIDRS []string // IPs allowed to access readyz/reload
	TrustProxy   bool     // true if running behind a trusted reverse proxy (e.g., cloudflared)

	Links     *service.LinkService
	UserLinks *service.UserLinkService
	Icons     *service.IconService
	Settings  *service.SettingsService
	Groups    *groups.Directory

	Auth        *auth.Middleware
	Limiter     *ratelimit.Limiter
	Validate    *validator.Validate
	DB          *gorm.DB
	RedisClient *redis.Client // nil when rate-limit counters live in memory

	SeedReloadTrigger chan struct{} // nil when no seed file is configured
}
