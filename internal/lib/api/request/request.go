package request

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// Request is the envelope every POST body uses: the payload goes in Data.
type Request struct {
	Data           interface{} `json:"data,omitempty"`
	ContinueOnFail bool        `json:"continue_on_fail"`
}

var (
	ErrEmptyBody = errors.New("request body is empty")
)

// Decode decodes request body into Request struct
func Decode(r *http.Request) (*Request, error) {
	var req Request
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyBody
		}
		return nil, err
	}
	return &req, nil
}
