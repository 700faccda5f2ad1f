package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/tbms/internal/core"
)

// WithRequestMetadata adds the client IP and User-Agent to ctx.
// RemoteAddr has already been resolved by TrustedRealIP.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithIPAddress(ctx, r.RemoteAddr)
	return core.ContextWithUserAgent(ctx, r.UserAgent())
}
