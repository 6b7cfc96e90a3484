package authz

import "context"

type userContextKey struct{}

// ContextWithUser attaches the resolved acting principal to the context.
func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext extracts the acting principal. Callers treat a missing
// principal as guest rather than an error.
func UserFromContext(ctx context.Context) *User {
	user, _ := ctx.Value(userContextKey{}).(*User)
	return user
}

// ActorFromContext is UserFromContext with the guest fallback applied.
func ActorFromContext(ctx context.Context) *User {
	if user := UserFromContext(ctx); user != nil {
		return user
	}
	return Guest()
}
