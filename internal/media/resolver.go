package media

import (
	"context"
	"strings"
)

// Resolver maps an opaque media reference to a URL clients can fetch.
// Media storage is a separate service; the gateway only rewrites
// references at the edge.
type Resolver interface {
	ResolveURL(ctx context.Context, ref string) (string, error)
}

// BaseURLResolver prefixes relative refs with the media service's
// public base URL and passes absolute refs through untouched.
type BaseURLResolver struct {
	baseURL string
}

// NewBaseURLResolver constructs a BaseURLResolver.
func NewBaseURLResolver(baseURL string) *BaseURLResolver {
	return &BaseURLResolver{baseURL: strings.TrimRight(baseURL, "/")}
}

// ResolveURL resolves ref against the base URL.
func (r *BaseURLResolver) ResolveURL(_ context.Context, ref string) (string, error) {
	if ref == "" {
		return "", nil
	}
	if strings.Contains(ref, "://") {
		return ref, nil
	}
	return r.baseURL + "/" + strings.TrimLeft(ref, "/"), nil
}
