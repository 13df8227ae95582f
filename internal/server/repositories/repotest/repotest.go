// Package repotest provides in-memory repositories for tests of packages
// built on top of the repository layer.
package repotest

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/accountd/internal/common"
	"github.com/dmitrijs2005/accountd/internal/dbx"
	"github.com/dmitrijs2005/accountd/internal/server/models"
	"github.com/dmitrijs2005/accountd/internal/server/repositories/users"
)

// Users is a map-backed users.Repository with case-insensitive uniqueness
// on email and username, matching the PostgreSQL indexes.
type Users struct {
	mu   sync.Mutex
	rows map[string]*models.User
	// Err fails every call; CreateErr fails only Create.
	Err       error
	CreateErr error
}

func NewUsers() *Users {
	return &Users{rows: map[string]*models.User{}}
}

// Put stores a copy of u, bypassing uniqueness checks.
func (f *Users) Put(u *models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *u
	f.rows[u.ID] = &cp
}

func (f *Users) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	for _, r := range f.rows {
		if strings.EqualFold(r.Email, u.Email) || strings.EqualFold(r.Username, u.Username) {
			return nil, common.ErrorAlreadyExists
		}
	}
	cp := *u
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	f.rows[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *Users) GetByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	r, ok := f.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *r
	return &out, nil
}

func (f *Users) GetByIdentifier(_ context.Context, identifier string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	var byName *models.User
	for _, r := range f.rows {
		if strings.EqualFold(r.Email, identifier) {
			out := *r
			return &out, nil
		}
		if strings.EqualFold(r.Username, identifier) {
			byName = r
		}
	}
	if byName == nil {
		return nil, common.ErrorNotFound
	}
	out := *byName
	return &out, nil
}

func (f *Users) ExistsByEmailOrUsername(_ context.Context, email, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return false, f.Err
	}
	for _, r := range f.rows {
		if strings.EqualFold(r.Email, email) || strings.EqualFold(r.Username, username) {
			return true, nil
		}
	}
	return false, nil
}

func (f *Users) List(context.Context) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	out := make([]*models.User, 0, len(f.rows))
	for _, r := range f.rows {
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (f *Users) Update(_ context.Context, id string, upd models.ProfileUpdate) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	r, ok := f.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if upd.Username != nil {
		for _, o := range f.rows {
			if o.ID != id && strings.EqualFold(o.Username, *upd.Username) {
				return nil, common.ErrorAlreadyExists
			}
		}
		r.Username = *upd.Username
	}
	if upd.FirstName != nil {
		r.FirstName = upd.FirstName
	}
	if upd.LastName != nil {
		r.LastName = upd.LastName
	}
	r.UpdatedAt = time.Now()
	out := *r
	return &out, nil
}

func (f *Users) SetBlocked(_ context.Context, id string, blocked bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	r, ok := f.rows[id]
	if !ok {
		return common.ErrorNotFound
	}
	r.Blocked = blocked
	return nil
}

func (f *Users) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	if _, ok := f.rows[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.rows, id)
	return nil
}

// Manager vends U for every handle, transactional or not.
type Manager struct {
	U *Users
}

func (m *Manager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *Manager) Users(dbx.DBTX) users.Repository            { return m.U }

func NewManager() *Manager {
	return &Manager{U: NewUsers()}
}

var _ users.Repository = (*Users)(nil)
