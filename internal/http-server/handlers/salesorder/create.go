package salesorder

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"myobclient/entity"
	handlererrors "myobclient/internal/http-server/handlers/errors"
	"myobclient/internal/lib/api/cont"
	"myobclient/internal/lib/api/request"
	"myobclient/internal/lib/api/response"
	apierrors "myobclient/internal/lib/errors"
	"myobclient/internal/lib/sl"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// Create accepts one order or an array in "data" and creates them in MYOB in order.
// With continue_on_fail, invalid or failed items are reported per item instead of
// failing the whole request.
func Create(logger *slog.Logger, core Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.salesorder.Create"

		log := logger.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("user", cont.GetUser(r.Context()).Name),
		)

		req, err := request.Decode(r)
		if err != nil {
			apiErr := apierrors.NewBadRequestError("Invalid request format")
			if errors.Is(err, request.ErrEmptyBody) {
				apiErr = apierrors.NewBadRequestError("Empty request body")
			}
			log.With(sl.Err(err)).Warn("failed to decode request", slog.String("error_code", string(apiErr.Code)))
			writeError(w, r, apiErr)
			return
		}

		var orders []entity.SalesOrderRequest
		if err = request.DecodeArrayData(req, &orders); err != nil {
			apiErr := apierrors.NewValidationError("Invalid sales order data")
			log.With(sl.Err(err)).Warn("failed to decode sales orders")
			writeError(w, r, apiErr)
			return
		}
		if len(orders) == 0 {
			writeError(w, r, apierrors.NewValidationError("No sales orders provided"))
			return
		}

		// invalid items keep their slot in the response
		results := make([]entity.SalesOrderResult, len(orders))
		valid := make([]entity.SalesOrderRequest, 0, len(orders))
		index := make([]int, 0, len(orders))
		for i := range orders {
			if err = orders[i].Bind(r); err != nil {
				if !req.ContinueOnFail {
					apiErr := apierrors.NewValidationError(fmt.Sprintf("order %d: %v", i+1, err))
					log.With(sl.Err(err)).Warn("sales order validation failed", slog.Int("index", i))
					writeError(w, r, apiErr)
					return
				}
				results[i] = entity.SalesOrderResult{Reference: orders[i].Reference, Error: err.Error()}
				continue
			}
			valid = append(valid, orders[i])
			index = append(index, i)
		}

		created, err := core.CreateSalesOrders(r.Context(), valid, req.ContinueOnFail)
		if err != nil {
			apiErr := handlererrors.FromError(err)
			log.With(sl.Err(err)).Error("failed to create sales orders",
				slog.String("error_code", string(apiErr.Code)),
				slog.Int("processed", len(created)),
			)
			resp := response.ErrorFromAPIError(apiErr).WithRequestID(middleware.GetReqID(r.Context()))
			// orders created before the failure already exist in MYOB
			if len(created) > 0 {
				resp = resp.WithData(created)
			}
			render.Status(r, apiErr.HTTPStatus)
			render.JSON(w, r, resp)
			return
		}
		for i, res := range created {
			results[index[i]] = res
		}

		failed := 0
		for _, res := range results {
			if res.Error != "" {
				failed++
			}
		}
		log.With(
			slog.Int("orders", len(results)),
			slog.Int("failed", failed),
		).Info("sales orders processed")

		message := "Sales orders created"
		if failed > 0 {
			message = fmt.Sprintf("%d of %d sales orders failed", failed, len(results))
		}
		if failed < len(results) {
			render.Status(r, http.StatusCreated)
		}
		render.JSON(w, r, response.OkWithMessage(results, message).WithRequestID(middleware.GetReqID(r.Context())))
	}
}

func writeError(w http.ResponseWriter, r *http.Request, apiErr *apierrors.APIError) {
	render.Status(r, apiErr.HTTPStatus)
	render.JSON(w, r, response.ErrorFromAPIError(apiErr).WithRequestID(middleware.GetReqID(r.Context())))
}
