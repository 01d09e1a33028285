package scratch

import (
	"context"
)

var appCtxKey = &contextKey{"app"}
var pathCtxKey = &contextKey{"path"}
var viewCtxKey = &contextKey{"view"}

type contextKey struct {
	name string
}

// AppContext is the shared authentication slot descendants read and write.
type AppContext interface {
	IsAuthenticated() bool
	SetAuthenticated(authenticated bool)
}

// WithAppContext sets the AppContext in the given context
func WithAppContext(ctx context.Context, app AppContext) context.Context {
	return context.WithValue(ctx, appCtxKey, app)
}

// AppContextFrom finds the AppContext in the context.
func AppContextFrom(ctx context.Context) (AppContext, bool) {
	raw, ok := ctx.Value(appCtxKey).(AppContext)
	return raw, ok
}

// IsAuthenticated is a convenience for views that only need to read the flag.
// It returns false when no AppContext is present.
func IsAuthenticated(ctx context.Context) bool {
	app, ok := AppContextFrom(ctx)
	if !ok {
		return false
	}
	return app.IsAuthenticated()
}

// WithCurrentPath stores the location path used for nav highlighting
func WithCurrentPath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, pathCtxKey, path)
}

// CurrentPath returns the location path stored with WithCurrentPath
func CurrentPath(ctx context.Context) string {
	raw, _ := ctx.Value(pathCtxKey).(string)
	return raw
}

// WithViewData stores request scoped template globals, e.g. the csrf field
func WithViewData(ctx context.Context, data map[string]any) context.Context {
	merged := map[string]any{}
	for k, v := range ViewData(ctx) {
		merged[k] = v
	}
	for k, v := range data {
		merged[k] = v
	}
	return context.WithValue(ctx, viewCtxKey, merged)
}

// ViewData returns the globals stored with WithViewData
func ViewData(ctx context.Context) map[string]any {
	raw, _ := ctx.Value(viewCtxKey).(map[string]any)
	return raw
}
