package item

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"myobclient/entity"
	handlererrors "myobclient/internal/http-server/handlers/errors"
	"myobclient/internal/lib/api/response"
	apierrors "myobclient/internal/lib/errors"
	"myobclient/internal/lib/sl"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// Resolve shows which MYOB item a SKU maps to and where the mapping came from.
func Resolve(logger *slog.Logger, core Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.item.Resolve"

		log := logger.With(slog.String("op", op))

		sku, err := url.PathUnescape(chi.URLParam(r, "sku"))
		if err != nil || sku == "" {
			apiErr := apierrors.NewBadRequestError("SKU is required")
			render.Status(r, apiErr.HTTPStatus)
			render.JSON(w, r, response.ErrorFromAPIError(apiErr))
			return
		}
		log = log.With(slog.String("sku", sku))

		ref, err := core.ResolveItem(r.Context(), sku)
		if err != nil {
			apiErr := handlererrors.FromError(err)
			if errors.Is(err, entity.ErrNotFound) {
				apiErr = apierrors.NewNotFoundErrorWithID("item", sku)
			}
			log.With(sl.Err(err)).Warn("failed to resolve sku", slog.String("error_code", string(apiErr.Code)))
			render.Status(r, apiErr.HTTPStatus)
			render.JSON(w, r, response.ErrorFromAPIError(apiErr))
			return
		}

		render.JSON(w, r, response.Ok(ref))
	}
}
