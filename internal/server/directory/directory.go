// Package directory opens the users.Directory backend selected by a
// connection URL.
//
// Supported schemes:
//
//	postgres://, postgresql://   PostgreSQL (pgx, goose migrations)
//	redis://, rediss://          Redis document store
//	sqlite://<dsn>               SQLite through gorm
//	memory://                    in-process, lost on restart
package directory

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/userkeeper/internal/logging"
	"github.com/dmitrijs2005/userkeeper/internal/server/directory/memory"
	"github.com/dmitrijs2005/userkeeper/internal/server/directory/postgres"
	"github.com/dmitrijs2005/userkeeper/internal/server/directory/redis"
	"github.com/dmitrijs2005/userkeeper/internal/server/directory/sqlite"
	"github.com/dmitrijs2005/userkeeper/internal/server/users"
)

// Open connects to the backend named by rawURL. The caller owns the returned
// handle and must Close it.
func Open(ctx context.Context, rawURL string, logger logging.Logger) (users.Directory, error) {
	scheme, rest, ok := strings.Cut(rawURL, "://")
	if !ok {
		return nil, fmt.Errorf("directory url %q has no scheme", redact(rawURL))
	}

	logger.Info(ctx, "opening user directory", "backend", strings.ToLower(scheme))

	switch strings.ToLower(scheme) {
	case "postgres", "postgresql":
		return postgres.Open(ctx, rawURL)
	case "redis", "rediss":
		return redis.Open(ctx, rawURL)
	case "sqlite":
		if rest == "" {
			return nil, fmt.Errorf("sqlite url needs a dsn, e.g. sqlite://users.db")
		}
		return sqlite.Open(ctx, rest)
	case "memory":
		logger.Warn(ctx, "in-memory directory: users are lost on restart")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported directory scheme %q", scheme)
	}
}

// redact drops anything that could be a password.
func redact(rawURL string) string {
	if i := strings.LastIndex(rawURL, "@"); i >= 0 {
		return "***" + rawURL[i:]
	}
	return rawURL
}
