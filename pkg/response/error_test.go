package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgErrors "github.com/vogiaan1904/thequeue/pkg/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestErrorMapsHTTPError(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgErrors.NewHTTPError(http.StatusNotFound, "TQ001", "Session not found")

	if werr := Error(rec, err, nil); werr != nil {
		t.Fatalf("Error() returned %v", werr)
	}

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	var body Resp
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.ErrorCode != "TQ001" || body.Message != "Session not found" {
		t.Errorf("body = %+v, want TQ001/Session not found", body)
	}
}

func TestErrorHidesUnknownErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	_ = Error(rec, errors.New("dial tcp: connection refused"), nil)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}

	var body Resp
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Message != "Internal server error" {
		t.Errorf("message = %q, want generic message", body.Message)
	}
}

func TestParseGRPCError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"not found", pkgErrors.NewGRPCError(codes.NotFound, "TQ001", "Session not found"), codes.NotFound},
		{"unset code", &pkgErrors.GRPCError{Message: "bad"}, codes.InvalidArgument},
		{"unknown", errors.New("boom"), codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := status.Code(ParseGRPCError(tt.err))
			if got != tt.want {
				t.Errorf("code = %v, want %v", got, tt.want)
			}
		})
	}
}
