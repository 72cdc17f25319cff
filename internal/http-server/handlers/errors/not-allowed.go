package errors

import (
	"log/slog"
	"net/http"

	"myobclient/internal/lib/api/response"
	apierrors "myobclient/internal/lib/errors"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

func NotAllowed(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apiErr := apierrors.NewMethodNotAllowedError(r.Method)
		log.Debug("method not allowed", slog.String("method", r.Method), slog.String("path", r.URL.Path))

		render.Status(r, apiErr.HTTPStatus)
		render.JSON(w, r, response.ErrorFromAPIError(apiErr).WithRequestID(middleware.GetReqID(r.Context())))
	}
}
