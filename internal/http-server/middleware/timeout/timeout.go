package timeout

import (
	"net/http"
	"time"

	"myobclient/internal/lib/api/response"
	apierrors "myobclient/internal/lib/errors"
)

// Timeout bounds request handling to the given number of seconds.
// Non-positive values fall back to 30 seconds.
func Timeout(seconds int) func(next http.Handler) http.Handler {
	d := time.Duration(seconds) * time.Second
	if d <= 0 {
		d = 30 * time.Second
	}
	body := timeoutBody()
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, body)
	}
}

func timeoutBody() string {
	resp := response.ErrorFromAPIError(apierrors.NewTimeoutError("request"))
	return `{"success":false,"status_message":"` + resp.StatusMessage + `","error":{"code":"` + resp.Error.Code + `","message":"` + resp.Error.Message + `"}}`
}
