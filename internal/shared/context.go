package shared

import "context"

// Actor identifies the user on whose behalf a report request runs.
// Authentication is owned by the surrounding application; this core only
// consumes the identity it hands over.
type Actor struct {
	ID string
}

type actorContextKey struct{}

// ContextWithActor stores the actor in context.
func ContextWithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor from context.
func ActorFromContext(ctx context.Context) *Actor {
	actor, _ := ctx.Value(actorContextKey{}).(*Actor)
	return actor
}
