package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "error without cause",
			err:  &AppError{Code: ErrCodeNotFound, Message: "user not found"},
			want: "user not found",
		},
		{
			name: "error with cause",
			err:  &AppError{Code: ErrCodeInternal, Message: "failed to save session", Cause: errors.New("redis down")},
			want: "failed to save session: redis down",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("AppError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppError_UnwrapAndCode(t *testing.T) {
	cause := errors.New("token expired")
	err := fmt.Errorf("login: %w", Unauthorized("access token rejected", cause))

	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the cause")
	}
	if !IsUnauthorized(err) {
		t.Errorf("GetCode() = %v, want unauthorized", GetCode(err))
	}
	if IsNotFound(err) || IsConflict(err) || IsValidation(err) {
		t.Error("unexpected code match")
	}
	if Wrap(nil, ErrCodeInternal, "x") != nil {
		t.Error("Wrap(nil) should be nil")
	}
	if GetCode(errors.New("plain")) != "" {
		t.Error("plain errors carry no code")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{NotFoundf("user %s not found", "u1"), http.StatusNotFound},
		{&AppError{Code: ErrCodeConflict}, http.StatusConflict},
		{Validation("bad role"), http.StatusBadRequest},
		{ValidationField("role", "bad role"), http.StatusBadRequest},
		{Unauthorized("nope", nil), http.StatusUnauthorized},
		{&AppError{Code: ErrCodeTimeout}, http.StatusGatewayTimeout},
		{Wrap(errors.New("line down"), ErrCodeUnavailable, "LINE is unavailable"), http.StatusServiceUnavailable},
		{Wrapf(errors.New("x"), ErrCodeInternal, "save %d", 1), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestPublicMessage(t *testing.T) {
	if got := PublicMessage(Validation("role must be customer or restaurant")); got != "role must be customer or restaurant" {
		t.Errorf("PublicMessage() = %q", got)
	}
	if got := PublicMessage(Wrap(errors.New("dsn leaked"), ErrCodeInternal, "db: dsn leaked")); got != "internal server error" {
		t.Errorf("internal details must not leak, got %q", got)
	}
}
