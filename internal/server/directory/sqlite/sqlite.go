// Package sqlite is a users.Directory stored in SQLite through gorm.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dmitrijs2005/userkeeper/internal/common"
	"github.com/dmitrijs2005/userkeeper/internal/server/users"
)

// userRow is the gorm model for the users table.
type userRow struct {
	ID             string    `gorm:"primaryKey;size:36"`
	Username       string    `gorm:"size:128;not null;uniqueIndex"`
	FullName       string    `gorm:"not null;default:''"`
	IsAdmin        bool      `gorm:"not null;default:false"`
	HashedPassword []byte    `gorm:"not null"`
	CreatedAt      time.Time `gorm:"not null;index"`
}

func (userRow) TableName() string { return "users" }

func (r userRow) toUser() *users.User {
	return &users.User{
		ID:             r.ID,
		Username:       r.Username,
		FullName:       r.FullName,
		IsAdmin:        r.IsAdmin,
		HashedPassword: r.HashedPassword,
		CreatedAt:      r.CreatedAt,
	}
}

type Directory struct {
	db  *gorm.DB
	now func() time.Time
}

// Open opens the SQLite database at dsn and migrates the users table.
// All access goes through a single connection.
func Open(ctx context.Context, dsn string) (*Directory, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.WithContext(ctx).AutoMigrate(&userRow{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return New(db), nil
}

// New wraps a gorm handle whose schema is already in place.
func New(db *gorm.DB) *Directory {
	return &Directory{db: db, now: time.Now}
}

func (d *Directory) FindByUsername(ctx context.Context, username string) (*users.User, error) {
	return d.take(ctx, "username = ?", username)
}

func (d *Directory) FindByID(ctx context.Context, id string) (*users.User, error) {
	return d.take(ctx, "id = ?", id)
}

func (d *Directory) take(ctx context.Context, cond string, arg string) (*users.User, error) {
	var row userRow
	if err := d.db.WithContext(ctx).Where(cond, arg).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, classify("select user", err)
	}
	return row.toUser(), nil
}

func (d *Directory) Insert(ctx context.Context, u *users.User) (string, error) {
	row := userRow{
		ID:             uuid.NewString(),
		Username:       u.Username,
		FullName:       u.FullName,
		IsAdmin:        u.IsAdmin,
		HashedPassword: u.HashedPassword,
		CreatedAt:      d.now().UTC(),
	}
	if row.HashedPassword == nil {
		row.HashedPassword = []byte{}
	}
	if err := d.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", classify("insert user", err)
	}
	return row.ID, nil
}

func (d *Directory) List(ctx context.Context) ([]users.User, error) {
	var rows []userRow
	if err := d.db.WithContext(ctx).Order("created_at, rowid").Find(&rows).Error; err != nil {
		return nil, classify("list users", err)
	}
	out := make([]users.User, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r.toUser())
	}
	return out, nil
}

func (d *Directory) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return classify("ping", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return classify("ping", err)
	}
	return nil
}

func (d *Directory) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func classify(op string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey),
		strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return common.ErrUsernameTaken
	case errors.Is(err, sql.ErrConnDone),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		strings.Contains(err.Error(), "database is closed"),
		strings.Contains(err.Error(), "database is locked"):
		return fmt.Errorf("%w: %s: %w", common.ErrStoreUnavailable, op, err)
	}
	return fmt.Errorf("sqlite error: %s: %w", op, err)
}
