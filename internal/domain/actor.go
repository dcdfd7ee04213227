package domain

import "context"

// ActorContext identifies the caller of a search operation. Identity and
// session handling live upstream; this subsystem only sees the opaque id
// and organization scope.
type ActorContext struct {
	ID    string
	OrgID string
}

// IsAnonymous reports whether no actor id was supplied.
func (a ActorContext) IsAnonymous() bool { return a.ID == "" }

type actorCtxKey struct{}

// ContextWithActor stores the actor in the context.
func ContextWithActor(ctx context.Context, actor ActorContext) context.Context {
	return context.WithValue(ctx, actorCtxKey{}, actor)
}

// ActorFromContext extracts the actor from the context.
// Returns a zero (anonymous) actor if none is present.
func ActorFromContext(ctx context.Context) ActorContext {
	if a, ok := ctx.Value(actorCtxKey{}).(ActorContext); ok {
		return a
	}
	return ActorContext{}
}
