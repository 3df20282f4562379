// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// This package defines context keys and getter/setter functions for values that are
// typically set by middleware but consumed by services. By keeping this package free
// of net/http dependencies, services can import only what they need without pulling
// in HTTP-related code.
//
// Usage in services (read values):
//
//	actor := requestcontext.Actor(ctx)
//	role := requestcontext.Role(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithActor(ctx, userID, email, role)
//	ctx = requestcontext.WithRequestID(ctx, requestID)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithActor(ctx, userID, "officer@bank.test", domain.RoleOfficer)
package requestcontext

import (
	"context"
	"time"

	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	actorIDKey     struct{}
	actorEmailKey  struct{}
	actorRoleKey   struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeyActorID     = actorIDKey{}
	ContextKeyActorEmail  = actorEmailKey{}
	ContextKeyActorRole   = actorRoleKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// -----------------------------------------------------------------------------
// Actor context (authenticated identity)
// -----------------------------------------------------------------------------

// ActorID retrieves the authenticated user ID from the context.
// Returns the zero value (nil UUID) if not set.
func ActorID(ctx context.Context) domain.UserID {
	if userID, ok := ctx.Value(ContextKeyActorID).(domain.UserID); ok {
		return userID
	}
	return domain.UserID{}
}

// Actor retrieves the authenticated actor's email from the context.
// The email doubles as the human-readable identity recorded in audit
// entries and note attributions.
func Actor(ctx context.Context) string {
	if email, ok := ctx.Value(ContextKeyActorEmail).(string); ok {
		return email
	}
	return ""
}

// Role retrieves the authenticated actor's role from the context.
// Returns the empty role if not set; callers must treat that as unauthenticated.
func Role(ctx context.Context) domain.Role {
	if role, ok := ctx.Value(ContextKeyActorRole).(domain.Role); ok {
		return role
	}
	return ""
}

// WithActor injects the authenticated identity into the context.
func WithActor(ctx context.Context, userID domain.UserID, email string, role domain.Role) context.Context {
	ctx = context.WithValue(ctx, ContextKeyActorID, userID)
	ctx = context.WithValue(ctx, ContextKeyActorEmail, email)
	return context.WithValue(ctx, ContextKeyActorRole, role)
}

// -----------------------------------------------------------------------------
// Request metadata
// -----------------------------------------------------------------------------

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// -----------------------------------------------------------------------------
// Request time
// -----------------------------------------------------------------------------

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (for non-HTTP contexts like workers, CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
// Useful for:
//   - Service unit tests that don't run the full HTTP middleware chain
//   - Workers that need consistent time within a batch operation
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
