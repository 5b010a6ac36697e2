package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/educast/catalog/api/web"
	"github.com/educast/catalog/api/weberr"
	"github.com/educast/catalog/rate"
)

// RateLimit throttles per client address using a shared token-bucket limiter.
func RateLimit(lm *rate.Limiter) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}

			if !lm.Check(host) {
				err := errors.New("rate limit exceeded")
				return weberr.NewError(err, err.Error(), http.StatusTooManyRequests)
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
