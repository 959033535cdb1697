// Package memory is an in-process users.Directory, used for tests and
// for running the service without external storage (DB_URL=memory://).
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/userkeeper/internal/common"
	"github.com/dmitrijs2005/userkeeper/internal/server/users"
)

type Directory struct {
	mu     sync.RWMutex
	byID   map[string]users.User
	byName map[string]string
	order  []string
	closed bool
	now    func() time.Time
}

func New() *Directory {
	return &Directory{
		byID:   make(map[string]users.User),
		byName: make(map[string]string),
		now:    time.Now,
	}
}

func (d *Directory) FindByUsername(ctx context.Context, username string) (*users.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if err := d.check(ctx); err != nil {
		return nil, err
	}
	id, ok := d.byName[username]
	if !ok {
		return nil, common.ErrNotFound
	}
	return clone(d.byID[id]), nil
}

func (d *Directory) FindByID(ctx context.Context, id string) (*users.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if err := d.check(ctx); err != nil {
		return nil, err
	}
	u, ok := d.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return clone(u), nil
}

func (d *Directory) Insert(ctx context.Context, u *users.User) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.check(ctx); err != nil {
		return "", err
	}
	if _, taken := d.byName[u.Username]; taken {
		return "", common.ErrUsernameTaken
	}

	rec := *clone(*u)
	rec.ID = uuid.NewString()
	rec.CreatedAt = d.now().UTC()

	d.byID[rec.ID] = rec
	d.byName[rec.Username] = rec.ID
	d.order = append(d.order, rec.ID)
	return rec.ID, nil
}

func (d *Directory) List(ctx context.Context) ([]users.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if err := d.check(ctx); err != nil {
		return nil, err
	}
	out := make([]users.User, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, *clone(d.byID[id]))
	}
	return out, nil
}

func (d *Directory) Ping(ctx context.Context) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.check(ctx)
}

// Close makes every later call fail with common.ErrStoreUnavailable.
func (d *Directory) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// check must be called with mu held.
func (d *Directory) check(ctx context.Context) error {
	if d.closed {
		return fmt.Errorf("%w: directory closed", common.ErrStoreUnavailable)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
	}
	return nil
}

func clone(u users.User) *users.User {
	u.HashedPassword = append([]byte(nil), u.HashedPassword...)
	return &u
}
