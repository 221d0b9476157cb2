package context

import (
	"context"
	"strings"
)

type requestIDKey struct{}
type actorKey struct{}
type auditRunKey struct{}

type actor struct {
	actorType string
	actorID   string
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, strings.TrimSpace(requestID))
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(requestIDKey{}).(string)
	return v
}

// WithActor records who is acting, e.g. ("operator", "u-17") or ("system", "scheduler").
func WithActor(ctx context.Context, actorType, actorID string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor{
		actorType: strings.TrimSpace(actorType),
		actorID:   strings.TrimSpace(actorID),
	})
}

func ActorFromContext(ctx context.Context) (string, string) {
	if ctx == nil {
		return "", ""
	}
	a, _ := ctx.Value(actorKey{}).(actor)
	return a.actorType, a.actorID
}

// WithAuditRun tags everything logged under ctx with the night audit run.
func WithAuditRun(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, auditRunKey{}, strings.TrimSpace(runID))
}

func AuditRunFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(auditRunKey{}).(string)
	return v
}
