package response

import (
	"myobclient/internal/lib/clock"
	apierrors "myobclient/internal/lib/errors"
)

// Response is the JSON envelope of every API reply.
type Response struct {
	Data          interface{}  `json:"data,omitempty"`
	Success       bool         `json:"success" validate:"required"`
	StatusMessage string       `json:"status_message"`
	Timestamp     string       `json:"timestamp"`
	Error         *ErrorDetail `json:"error,omitempty"`
	RequestID     string       `json:"request_id,omitempty"`
}

type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func Ok(data interface{}) Response {
	return OkWithMessage(data, "Success")
}

func OkWithMessage(data interface{}, message string) Response {
	return Response{
		Data:          data,
		Success:       true,
		StatusMessage: message,
		Timestamp:     clock.Now(),
	}
}

func ErrorFromAPIError(err *apierrors.APIError) Response {
	return Response{
		Success:       false,
		StatusMessage: err.Message,
		Timestamp:     clock.Now(),
		Error: &ErrorDetail{
			Code:    string(err.Code),
			Message: err.Message,
			Details: err.Details,
		},
	}
}

// WithData attaches data to an error reply, e.g. orders created before a batch stopped.
func (r Response) WithData(data interface{}) Response {
	r.Data = data
	return r
}

func (r Response) WithRequestID(requestID string) Response {
	r.RequestID = requestID
	return r
}
