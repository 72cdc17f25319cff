package item

import (
	"log/slog"
	"net/http"
	"net/url"

	"myobclient/internal/lib/api/response"
	apierrors "myobclient/internal/lib/errors"
	"myobclient/internal/lib/sl"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// Forget removes a SKU mapping from the cache and the SKU map.
func Forget(logger *slog.Logger, core Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.item.Forget"

		sku, err := url.PathUnescape(chi.URLParam(r, "sku"))
		if err != nil || sku == "" {
			apiErr := apierrors.NewBadRequestError("SKU is required")
			render.Status(r, apiErr.HTTPStatus)
			render.JSON(w, r, response.ErrorFromAPIError(apiErr))
			return
		}
		log := logger.With(slog.String("op", op), slog.String("sku", sku))

		if err = core.ForgetItem(r.Context(), sku); err != nil {
			apiErr := apierrors.NewDatabaseError("ForgetItem")
			log.With(sl.Err(err)).Error("failed to remove sku mapping")
			render.Status(r, apiErr.HTTPStatus)
			render.JSON(w, r, response.ErrorFromAPIError(apiErr))
			return
		}

		render.JSON(w, r, response.OkWithMessage(map[string]string{"sku": sku}, "SKU mapping removed"))
	}
}
