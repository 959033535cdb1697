// Package httpapi is the HTTP boundary of the service: login, user
// management and token-protected routes on a gin engine.
package httpapi

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/userkeeper/internal/common"
	"github.com/dmitrijs2005/userkeeper/internal/logging"
	"github.com/dmitrijs2005/userkeeper/internal/server/auth"
	"github.com/dmitrijs2005/userkeeper/internal/server/users"
)

type UserService interface {
	Login(ctx context.Context, username, password string) (*users.User, error)
	CreateUser(ctx context.Context, n users.NewUser) (*users.User, error)
	ListUsers(ctx context.Context) ([]users.User, error)
	IssueToken(ctx context.Context, u *users.User, now time.Time) (string, error)
}

type Authenticator interface {
	Authenticate(header string, requireAdmin bool) (auth.Principal, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures NewRouter. Now defaults to time.Now.
type Options struct {
	Users          UserService
	Guard          Authenticator
	Health         Pinger
	Logger         logging.Logger
	RequestTimeout time.Duration
	Now            func() time.Time
}

// NewRouter builds the gin engine with recovery, request-ID, access log,
// CORS and timeout middleware. gin's mode is process-wide and left to the caller.
func NewRouter(opts Options) *gin.Engine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger.With("module", "http")

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestID())
	engine.Use(accessLog(logger))
	engine.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			common.AuthorizationHeaderName,
			common.RequestIDHeaderName,
		},
		ExposeHeaders: []string{common.RequestIDHeaderName, "WWW-Authenticate"},
		MaxAge:        12 * time.Hour,
	}))
	engine.Use(requestTimeout(opts.RequestTimeout))

	h := &handlers{users: opts.Users, health: opts.Health, now: opts.Now}

	engine.GET("/healthz", h.healthz)
	engine.POST("/token", h.token)
	engine.GET("/test-auth", requireAuth(opts.Guard, false), h.testAuth)

	admin := engine.Group("/users", requireAuth(opts.Guard, true))
	admin.GET("", h.listUsers)
	admin.POST("", h.createUser)

	return engine
}
