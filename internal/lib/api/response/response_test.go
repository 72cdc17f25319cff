package response

import (
	"testing"

	apierrors "myobclient/internal/lib/errors"
)

func TestOk(t *testing.T) {
	resp := Ok(map[string]string{"uid": "x"})

	if !resp.Success {
		t.Error("Ok() Success should be true")
	}
	if resp.StatusMessage != "Success" {
		t.Errorf("Ok() StatusMessage = %v, want Success", resp.StatusMessage)
	}
	if resp.Data == nil {
		t.Error("Ok() Data should not be nil")
	}
	if resp.Timestamp == "" {
		t.Error("Ok() Timestamp should not be empty")
	}
	if resp.Error != nil {
		t.Error("Ok() Error should be nil")
	}
}

func TestOkWithMessage(t *testing.T) {
	resp := OkWithMessage([]int{1}, "1 of 2 sales orders failed")
	if !resp.Success || resp.StatusMessage != "1 of 2 sales orders failed" {
		t.Errorf("OkWithMessage() = %+v", resp)
	}
}

func TestErrorFromAPIError(t *testing.T) {
	apiErr := apierrors.NewUpstreamError("myob", 400, "myob error (status 400)").WithDetail("myob_error_code", "4000")
	resp := ErrorFromAPIError(apiErr).WithRequestID("req-1")

	if resp.Success {
		t.Error("Success should be false")
	}
	if resp.Error == nil || resp.Error.Code != "UPSTREAM_ERROR" {
		t.Fatalf("Error = %+v", resp.Error)
	}
	if resp.Error.Details["upstream_status"] != "400" || resp.Error.Details["myob_error_code"] != "4000" {
		t.Errorf("Details = %v", resp.Error.Details)
	}
	if resp.RequestID != "req-1" {
		t.Errorf("RequestID = %q", resp.RequestID)
	}
}

func TestErrorWithData(t *testing.T) {
	resp := ErrorFromAPIError(apierrors.NewInternalError("boom")).WithData([]string{"created"})
	if resp.Success || resp.Data == nil || resp.Error == nil {
		t.Errorf("WithData() = %+v", resp)
	}
}
