package auth

import "context"

type contextKey string

const (
	tenantKey  contextKey = "auth.tenant_id"
	roleKey    contextKey = "auth.role"
	subjectKey contextKey = "auth.subject"
)

// WithIdentity annotates the context with the verified caller identity.
// Handlers downstream read it through the accessor functions below.
func WithIdentity(ctx context.Context, tenantID string, role Role, subject string) context.Context {
	ctx = context.WithValue(ctx, tenantKey, tenantID)
	ctx = context.WithValue(ctx, roleKey, role)
	return context.WithValue(ctx, subjectKey, subject)
}

// TenantIDFromContext returns the caller's tenant, or "" when the
// request was not authenticated.
func TenantIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	tenantID, _ := ctx.Value(tenantKey).(string)
	return tenantID
}

// RoleFromContext returns the caller's role, or "" when the request was
// not authenticated.
func RoleFromContext(ctx context.Context) Role {
	if ctx == nil {
		return ""
	}
	switch value := ctx.Value(roleKey).(type) {
	case Role:
		return value
	case string:
		if role, ok := NormalizeRole(value); ok {
			return role
		}
	}
	return ""
}

// SubjectFromContext returns the token subject, or "" when absent.
func SubjectFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	subject, _ := ctx.Value(subjectKey).(string)
	return subject
}
