package api

import (
	"context"

	"github.com/terra-clan/consult-portal/internal/models"
)

type contextKey string

const sessionContextKey contextKey = "portal_session"

// SessionFromContext extracts the portal session from context
func SessionFromContext(ctx context.Context) *models.Session {
	sess, ok := ctx.Value(sessionContextKey).(*models.Session)
	if !ok {
		return nil
	}
	return sess
}

// ContextWithSession adds the portal session to context
func ContextWithSession(ctx context.Context, sess *models.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}
