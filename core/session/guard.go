package session

import (
	"context"

	"github.com/trezcool/maoni/core/account"
)

// GuardState is the access guard's state machine. Checking is entered on
// every mount; Authorized and Redirected are terminal. While Checking,
// nothing protected may be rendered.
type GuardState int

const (
	StateChecking GuardState = iota
	StateAuthorized
	StateRedirected
)

func (s GuardState) String() string {
	switch s {
	case StateChecking:
		return "checking"
	case StateAuthorized:
		return "authorized"
	case StateRedirected:
		return "redirected"
	default:
		return "unknown"
	}
}

// Decision is the guard's terminal outcome. Authenticated distinguishes a
// wrong-role redirect from an unauthenticated one.
type Decision struct {
	State         GuardState
	Role          account.Role
	Authenticated bool
}

// Guard wraps a protected view with a required-role set.
type Guard struct {
	resolver *Resolver
	required map[account.Role]struct{}
}

func NewGuard(resolver *Resolver, required ...account.Role) *Guard {
	set := make(map[account.Role]struct{}, len(required))
	for _, role := range required {
		set[role] = struct{}{}
	}
	return &Guard{resolver: resolver, required: set}
}

// Check runs the state machine for one mount. The role is re-resolved on
// every call; a previous resolution is never trusted across navigations
// beyond what the resolver's write-through cache provides.
func (g *Guard) Check(ctx context.Context, accountID string) Decision {
	// Checking: absent identity redirects without a role lookup.
	if accountID == "" {
		return Decision{State: StateRedirected}
	}
	role, err := g.resolver.ResolveRole(ctx, accountID)
	if err != nil {
		return Decision{State: StateRedirected}
	}
	if _, ok := g.required[role]; ok {
		return Decision{State: StateAuthorized, Role: role, Authenticated: true}
	}
	return Decision{State: StateRedirected, Role: role, Authenticated: true}
}
