package salesorder

import (
	"errors"
	"log/slog"
	"net/http"

	"myobclient/entity"
	"myobclient/internal/lib/api/response"
	apierrors "myobclient/internal/lib/errors"
	"myobclient/internal/lib/sl"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// Log returns the recorded attempts for one order reference.
func Log(logger *slog.Logger, core Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.salesorder.Log"

		reference := chi.URLParam(r, "reference")
		if reference == "" {
			writeError(w, r, apierrors.NewBadRequestError("Reference is required"))
			return
		}
		log := logger.With(slog.String("op", op), slog.String("reference", reference))

		order, err := core.OrderLog(reference)
		if err != nil {
			apiErr := apierrors.NewDatabaseError("OrderLog")
			if errors.Is(err, entity.ErrNotFound) {
				apiErr = apierrors.NewNotFoundErrorWithID("order", reference)
			}
			log.With(sl.Err(err)).Warn("order log lookup failed")
			writeError(w, r, apiErr)
			return
		}

		render.JSON(w, r, response.Ok(order))
	}
}
