// Package postgres is a users.Directory backed by PostgreSQL through the pgx
// database/sql driver. The schema is applied with goose on Open.
package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/userkeeper/internal/common"
	"github.com/dmitrijs2005/userkeeper/internal/server/migrations"
	"github.com/dmitrijs2005/userkeeper/internal/server/users"
)

const (
	codeUniqueViolation     = "23505"
	codeInvalidTextRepr     = "22P02"
	codeCharNotInRepertoire = "22021"
	connectionExceptionCode = "08"
)

// DBTX is the subset of database/sql used by the directory.
// Both *sql.DB and *sql.Tx satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Migrate applies the embedded migrations to db.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

// Open connects to dsn, checks the connection and applies migrations.
func Open(ctx context.Context, dsn string) (*Directory, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, classify("ping", err)
	}

	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return New(db), nil
}

type Directory struct {
	db DBTX
	// conn is set when the directory owns the pool.
	conn *sql.DB
}

// New wraps an existing handle. Close only closes db when it is a *sql.DB.
func New(db DBTX) *Directory {
	d := &Directory{db: db}
	if conn, ok := db.(*sql.DB); ok {
		d.conn = conn
	}
	return d
}

const selectUser = `SELECT id, username, full_name, is_admin, hashed_password, created_at FROM users`

func (d *Directory) FindByUsername(ctx context.Context, username string) (*users.User, error) {
	return d.findOne(ctx, selectUser+` WHERE username = $1`, username)
}

func (d *Directory) FindByID(ctx context.Context, id string) (*users.User, error) {
	return d.findOne(ctx, selectUser+` WHERE id = $1`, id)
}

func (d *Directory) findOne(ctx context.Context, query string, arg string) (*users.User, error) {
	u := &users.User{}
	err := d.db.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Username, &u.FullName, &u.IsAdmin, &u.HashedPassword, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		// A malformed uuid or an unencodable name can never match a row.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && (pgErr.Code == codeInvalidTextRepr || pgErr.Code == codeCharNotInRepertoire) {
			return nil, common.ErrNotFound
		}
		return nil, classify("select user", err)
	}
	return u, nil
}

func (d *Directory) Insert(ctx context.Context, u *users.User) (string, error) {
	query :=
		`INSERT INTO users (username, full_name, is_admin, hashed_password)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`

	var id string
	err := d.db.QueryRowContext(ctx, query, u.Username, u.FullName, u.IsAdmin, u.HashedPassword).Scan(&id)
	if err != nil {
		return "", classify("insert user", err)
	}
	return id, nil
}

func (d *Directory) List(ctx context.Context) ([]users.User, error) {
	rows, err := d.db.QueryContext(ctx, selectUser+` ORDER BY created_at, id`)
	if err != nil {
		return nil, classify("list users", err)
	}
	defer rows.Close()

	var out []users.User
	for rows.Next() {
		var u users.User
		if err := rows.Scan(&u.ID, &u.Username, &u.FullName, &u.IsAdmin, &u.HashedPassword, &u.CreatedAt); err != nil {
			return nil, classify("scan user", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list users", err)
	}
	return out, nil
}

func (d *Directory) Ping(ctx context.Context) error {
	if d.conn == nil {
		return nil
	}
	if err := d.conn.PingContext(ctx); err != nil {
		return classify("ping", err)
	}
	return nil
}

func (d *Directory) Close() error {
	if d.conn == nil {
		return nil
	}
	return d.conn.Close()
}

// classify maps driver errors onto the directory error set.
func classify(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == codeUniqueViolation:
			return common.ErrUsernameTaken
		case pgErr.Code == codeCharNotInRepertoire:
			return fmt.Errorf("%w: %s: %s", common.ErrValidation, op, pgErr.Message)
		case len(pgErr.Code) >= 2 && pgErr.Code[:2] == connectionExceptionCode:
			return fmt.Errorf("%w: %s: %w", common.ErrStoreUnavailable, op, err)
		}
		return fmt.Errorf("db error: %s: %w", op, err)
	}

	if isConnectivity(err) {
		return fmt.Errorf("%w: %s: %w", common.ErrStoreUnavailable, op, err)
	}
	return fmt.Errorf("db error: %s: %w", op, err)
}

func isConnectivity(err error) bool {
	var (
		connectErr *pgconn.ConnectError
		netErr     net.Error
	)
	return errors.As(err, &connectErr) ||
		errors.As(err, &netErr) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		pgconn.Timeout(err)
}
