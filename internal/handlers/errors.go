package handlers

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/url-shortener/internal/shortener"
)

// ErrorResponse is the error envelope returned by every endpoint.
type ErrorResponse struct {
	status int

	Status  bool   `json:"status"`
	Message string `json:"message"`
}

func (e *ErrorResponse) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *ErrorResponse) GetStatus() int {
	return e.status
}

// NewError builds the envelope. It matches huma.NewError so it can replace it.
func NewError(status int, message string, _ ...error) huma.StatusError {
	return &ErrorResponse{status: status, Status: false, Message: message}
}

// UseErrorEnvelope makes huma render all errors, including its own validation
// and middleware errors, as ErrorResponse.
func UseErrorEnvelope() {
	huma.NewError = NewError
}

// statusFor maps resolver errors onto HTTP errors.
func statusFor(err error, invalidMessage string) huma.StatusError {
	switch {
	case errors.Is(err, shortener.ErrInvalidInput):
		return NewError(http.StatusBadRequest, invalidMessage)
	case errors.Is(err, shortener.ErrNotFound):
		return NewError(http.StatusNotFound, "URL not found")
	default:
		return NewError(http.StatusInternalServerError, "Server error")
	}
}
