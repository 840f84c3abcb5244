package bistro

import (
	"context"
	"errors"
	"fmt"
)

// Action names a mutation an Authorizer can allow or deny.
type Action string

const (
	ActionSubmitOrder  Action = "order.submit"
	ActionAdvanceOrder Action = "order.advance"
	ActionSettleOrder  Action = "order.settle"
	ActionRemoveOrder  Action = "order.remove"
	ActionReceiveStock Action = "stock.receive"
	ActionConsumeStock Action = "stock.consume"
	ActionDeleteBatch  Action = "stock.delete"
)

// Authorizer decides whether the caller in ctx may perform action for
// tenantID. A nil error allows it.
type Authorizer interface {
	Authorize(ctx context.Context, tenantID string, action Action) error
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(ctx context.Context, tenantID string, action Action) error

// Authorize implements Authorizer.
func (f AuthorizerFunc) Authorize(ctx context.Context, tenantID string, action Action) error {
	return f(ctx, tenantID, action)
}

// AllowAll permits every action.
var AllowAll Authorizer = AuthorizerFunc(func(context.Context, string, Action) error { return nil })

// RoleAuthorizer allows an action when the actor's role in ctx is listed
// for it. Actions with no entry are allowed for any role.
type RoleAuthorizer map[Action][]string

// Authorize implements Authorizer.
func (r RoleAuthorizer) Authorize(ctx context.Context, _ string, action Action) error {
	roles, ok := r[action]
	if !ok {
		return nil
	}
	actor, _ := ActorFrom(ctx)
	for _, role := range roles {
		if actor.Role == role {
			return nil
		}
	}
	return fmt.Errorf("%w: role %q may not %s", ErrUnauthorized, actor.Role, action)
}

func (b *Bistro) authorize(ctx context.Context, tenantID string, action Action) error {
	if err := b.authorizer.Authorize(ctx, tenantID, action); err != nil {
		b.logger.Warn("action denied",
			"tenant_id", tenantID,
			"action", action,
			"error", err,
		)
		if errors.Is(err, ErrUnauthorized) {
			return err
		}
		return fmt.Errorf("%w: %s: %w", ErrUnauthorized, action, err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Context
// ──────────────────────────────────────────────────

type actorKey struct{}

// Actor identifies who is operating the terminal.
type Actor struct {
	ID   string
	Role string // "cashier", "kitchen", "manager", ...
}

// WithActor attaches the operating actor to ctx.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFrom returns the actor attached to ctx, if any.
func ActorFrom(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok
}
