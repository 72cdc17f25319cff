package idempotency

import (
	"context"
	"log/slog"
	"net/http"

	"myobclient/internal/lib/api/response"
	apierrors "myobclient/internal/lib/errors"
	"myobclient/internal/lib/sl"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

const Header = "Idempotency-Key"

type Claimer interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// New rejects a repeated Idempotency-Key with 409. Requests without the header pass
// through, as do all requests when claimer is nil or the store is unreachable.
// A claim is released when the request ends without a 2xx so the client can retry.
func New(log *slog.Logger, claimer Claimer) func(next http.Handler) http.Handler {
	logger := log.With(sl.Module("middleware.idempotency"))

	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(Header)
			if key == "" || claimer == nil {
				next.ServeHTTP(w, r)
				return
			}

			ok, err := claimer.Claim(r.Context(), key)
			if err != nil {
				logger.With(slog.String("key", key), sl.Err(err)).Warn("idempotency check skipped")
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				apiErr := apierrors.NewConflictError("Duplicate request").WithDetail("idempotency_key", key)
				logger.With(slog.String("key", key)).Warn("duplicate request rejected")
				render.Status(r, apiErr.HTTPStatus)
				render.JSON(w, r, response.ErrorFromAPIError(apiErr))
				return
			}

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			if status >= 200 && status < 300 {
				return
			}
			// the request context may already be cancelled by a timeout
			if err = claimer.Release(context.WithoutCancel(r.Context()), key); err != nil {
				logger.With(slog.String("key", key), sl.Err(err)).Error("idempotency key not released")
				return
			}
			logger.With(slog.String("key", key), slog.Int("status", status)).Debug("idempotency key released")
		}
		return http.HandlerFunc(fn)
	}
}
