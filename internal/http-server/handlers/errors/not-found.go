package errors

import (
	"log/slog"
	"net/http"

	"myobclient/internal/lib/api/response"
	apierrors "myobclient/internal/lib/errors"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

func NotFound(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apiErr := apierrors.NewNotFoundErrorWithID("route", r.URL.Path)
		log.Debug("route not found", slog.String("method", r.Method), slog.String("path", r.URL.Path))

		render.Status(r, apiErr.HTTPStatus)
		render.JSON(w, r, response.ErrorFromAPIError(apiErr).WithRequestID(middleware.GetReqID(r.Context())))
	}
}
