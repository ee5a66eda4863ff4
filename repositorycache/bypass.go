package repositorycache

import "context"

type bypassKey struct{}

// WithoutCache marks ctx so cached repositories read straight from the base
// repository. Results are not stored.
func WithoutCache(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, bypassKey{}, true)
}

func cacheBypassed(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	bypass, _ := ctx.Value(bypassKey{}).(bool)
	return bypass
}
