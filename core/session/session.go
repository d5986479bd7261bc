// Package session carries the role-resolution and access-control core:
// an explicit warm-start cache of the last resolved role, a fail-closed
// role resolver, the per-view access guard and the landing-view router.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/trezcool/maoni/core/account"
)

// ErrNotFound is returned whenever a role cannot be resolved: missing
// identity, missing account, unrecognized role or any lookup failure.
// Resolution always fails closed, never open.
var ErrNotFound = errors.New("role not found")

// Session is the ephemeral, process-wide record of the last resolved role.
// It is a performance hint only; authorization decisions always re-derive the
// role from the account record.
type Session struct {
	AccountID string
	Role      account.Role
	CachedAt  time.Time
}

// Store is the explicit warm-start cache. It is injected wherever needed,
// never a bare module-level variable, and is invalidated on sign-out and on
// every identity change.
type Store struct {
	mu   sync.RWMutex
	sess *Session
}

func NewStore() *Store {
	return &Store{}
}

// Put records the resolved role. A different account ID replaces the cached
// session wholesale (identity change).
func (s *Store) Put(accountID string, role account.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = &Session{AccountID: accountID, Role: role, CachedAt: time.Now().UTC()}
}

// Get returns the cached session, if any.
func (s *Store) Get() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sess == nil {
		return Session{}, false
	}
	return *s.sess, true
}

// Invalidate drops the cached session.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = nil
}

// AccountGetter is the part of the account service the resolver needs.
type AccountGetter interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
}

// Resolver derives the role of an authenticated identity from its account
// record. The warm-start cache is written through on success but never
// consulted for the decision itself.
type Resolver struct {
	accounts AccountGetter
	cache    *Store
}

func NewResolver(accounts AccountGetter, cache *Store) *Resolver {
	return &Resolver{accounts: accounts, cache: cache}
}

// ResolveRole looks up the account keyed by accountID and parses its role
// field. Missing account, unrecognized role, inactive account or any lookup
// error resolves to ErrNotFound; the caller must treat that as an
// unauthenticated state.
func (r *Resolver) ResolveRole(ctx context.Context, accountID string) (account.Role, error) {
	if accountID == "" {
		return account.RoleUnknown, ErrNotFound
	}
	acct, err := r.accounts.GetByID(ctx, accountID)
	if err != nil {
		return account.RoleUnknown, ErrNotFound
	}
	role := account.ParseRole(string(acct.Role))
	if !role.Known() || !acct.IsActive {
		return account.RoleUnknown, ErrNotFound
	}
	r.cache.Put(accountID, role)
	return role, nil
}
