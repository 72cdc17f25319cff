package errors

import (
	"context"
	stderrors "errors"
	"strconv"

	"myobclient/entity"
	apierrors "myobclient/internal/lib/errors"
	"myobclient/internal/services"
)

// FromError maps a core or MYOB failure onto an API error.
func FromError(err error) *apierrors.APIError {
	var myobErr *services.APIError
	switch {
	case stderrors.As(err, &myobErr):
		apiErr := apierrors.NewUpstreamError("myob", myobErr.Status, err.Error())
		if len(myobErr.Errors) > 0 {
			apiErr.WithDetail("myob_error_code", strconv.Itoa(myobErr.Errors[0].ErrorCode))
			apiErr.WithDetail("myob_error_name", myobErr.Errors[0].Name)
		}
		return apiErr
	case stderrors.Is(err, entity.ErrSkuUnresolved),
		stderrors.Is(err, entity.ErrNotFound),
		stderrors.Is(err, entity.ErrAmbiguous),
		stderrors.Is(err, entity.ErrInactive):
		return apierrors.NewValidationError(err.Error())
	case stderrors.Is(err, context.DeadlineExceeded):
		return apierrors.NewTimeoutError("myob")
	case stderrors.Is(err, entity.ErrInvalidDate):
		return apierrors.NewInvalidInputError("date", err.Error())
	default:
		return apierrors.NewInternalError(err.Error())
	}
}
