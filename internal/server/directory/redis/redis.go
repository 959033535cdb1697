// Package redis is a document-style users.Directory on top of Redis.
//
// Each record is a JSON document under <prefix>user:<id>. The username index
// <prefix>username:<name> is claimed with SETNX inside a Lua script so that
// two concurrent inserts of the same username cannot both succeed. Listing
// order comes from a sorted set scored by an insert sequence.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrijs2005/userkeeper/internal/common"
	"github.com/dmitrijs2005/userkeeper/internal/server/users"
)

const DefaultPrefix = "userdir:"

var insertScript = redis.NewScript(`
if redis.call('SETNX', KEYS[1], ARGV[1]) == 0 then
  return 0
end
redis.call('SET', KEYS[2], ARGV[2])
local seq = redis.call('INCR', KEYS[4])
redis.call('ZADD', KEYS[3], seq, ARGV[1])
return 1
`)

type Directory struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// record is the stored document.
type record struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	FullName       string    `json:"full_name,omitempty"`
	IsAdmin        bool      `json:"is_admin"`
	HashedPassword []byte    `json:"hashed_password"`
	CreatedAt      time.Time `json:"created_at"`
}

// Open connects using a redis:// or rediss:// URL and pings the server.
func Open(ctx context.Context, rawURL string) (*Directory, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, classify("redis ping failed", err)
	}
	return New(client, DefaultPrefix), nil
}

// New wraps an existing client. An empty prefix means DefaultPrefix.
func New(client *redis.Client, prefix string) *Directory {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Directory{client: client, prefix: prefix, now: time.Now}
}

func (d *Directory) docKey(id string) string        { return d.prefix + "user:" + id }
func (d *Directory) nameKey(username string) string { return d.prefix + "username:" + username }
func (d *Directory) indexKey() string               { return d.prefix + "users" }
func (d *Directory) seqKey() string                 { return d.prefix + "seq" }

func (d *Directory) FindByUsername(ctx context.Context, username string) (*users.User, error) {
	id, err := d.client.Get(ctx, d.nameKey(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrNotFound
		}
		return nil, classify("get username", err)
	}
	return d.FindByID(ctx, id)
}

func (d *Directory) FindByID(ctx context.Context, id string) (*users.User, error) {
	raw, err := d.client.Get(ctx, d.docKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrNotFound
		}
		return nil, classify("get user", err)
	}
	return decode(raw)
}

func (d *Directory) Insert(ctx context.Context, u *users.User) (string, error) {
	rec := record{
		ID:             uuid.NewString(),
		Username:       u.Username,
		FullName:       u.FullName,
		IsAdmin:        u.IsAdmin,
		HashedPassword: u.HashedPassword,
		CreatedAt:      d.now().UTC(),
	}
	doc, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("encode user: %w", err)
	}

	keys := []string{d.nameKey(rec.Username), d.docKey(rec.ID), d.indexKey(), d.seqKey()}
	ok, err := insertScript.Run(ctx, d.client, keys, rec.ID, doc).Int()
	if err != nil {
		return "", classify("insert user", err)
	}
	if ok == 0 {
		return "", common.ErrUsernameTaken
	}
	return rec.ID, nil
}

func (d *Directory) List(ctx context.Context) ([]users.User, error) {
	ids, err := d.client.ZRange(ctx, d.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, classify("list user ids", err)
	}
	if len(ids) == 0 {
		return []users.User{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = d.docKey(id)
	}
	docs, err := d.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, classify("load users", err)
	}

	out := make([]users.User, 0, len(docs))
	for _, v := range docs {
		s, ok := v.(string)
		if !ok {
			continue
		}
		u, err := decode([]byte(s))
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, nil
}

func (d *Directory) Ping(ctx context.Context) error {
	if err := d.client.Ping(ctx).Err(); err != nil {
		return classify("ping", err)
	}
	return nil
}

func (d *Directory) Close() error {
	return d.client.Close()
}

func decode(raw []byte) (*users.User, error) {
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &users.User{
		ID:             rec.ID,
		Username:       rec.Username,
		FullName:       rec.FullName,
		IsAdmin:        rec.IsAdmin,
		HashedPassword: rec.HashedPassword,
		CreatedAt:      rec.CreatedAt,
	}, nil
}

func classify(op string, err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) ||
		errors.Is(err, redis.ErrClosed) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %s: %w", common.ErrStoreUnavailable, op, err)
	}
	return fmt.Errorf("redis error: %s: %w", op, err)
}
