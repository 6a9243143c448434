package domain

import (
	"errors"
	"net/http"
)

var (
	// ErrParseFailure is returned when the vision response is not a valid collection analysis
	ErrParseFailure = errors.New("failed to parse analysis results")

	// ErrNoWatches is returned when the analysis reports zero watches
	ErrNoWatches = errors.New("no watches detected in the image")

	// ErrVisionAPIFailure is returned when the vision model request fails
	ErrVisionAPIFailure = errors.New("vision API request failed")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidImage is returned when the uploaded image is missing or malformed
	ErrInvalidImage = errors.New("invalid image data")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrInvalidCardID is returned when a card id is not 5 alphanumeric characters
	ErrInvalidCardID = errors.New("invalid card ID format")

	// ErrCardNotFound is returned when no card is stored under an id
	ErrCardNotFound = errors.New("card not found")

	// ErrCardIDExhausted is returned when no unused card id could be generated
	ErrCardIDExhausted = errors.New("could not allocate a unique card ID")
)

// ErrorKind is the user-facing error category
type ErrorKind string

const (
	KindParseError ErrorKind = "parse_error"
	KindNoWatches  ErrorKind = "no_watches"
	KindAPIError   ErrorKind = "api_error"
	KindRateLimit  ErrorKind = "rate_limit"
	KindFileError  ErrorKind = "file_error"
)

// ErrorClass describes how an error is surfaced to the client
type ErrorClass struct {
	Kind      ErrorKind
	Status    int
	Retryable bool
	Message   string
}

// ClassifyError maps an error onto the user-facing taxonomy
func ClassifyError(err error) ErrorClass {
	switch {
	case errors.Is(err, ErrRateLimited):
		return ErrorClass{KindRateLimit, http.StatusTooManyRequests, true, "Rate limit exceeded. Please wait before trying again."}
	case errors.Is(err, ErrNoWatches):
		return ErrorClass{KindNoWatches, http.StatusUnprocessableEntity, false, "No G-Shock watches detected in the image. Try uploading a clearer photo."}
	case errors.Is(err, ErrParseFailure):
		return ErrorClass{KindParseError, http.StatusBadGateway, true, "Failed to parse analysis results. Please try again."}
	case errors.Is(err, ErrInvalidImage), errors.Is(err, ErrInvalidRequest):
		return ErrorClass{KindFileError, http.StatusBadRequest, false, err.Error()}
	default:
		return ErrorClass{KindAPIError, http.StatusInternalServerError, true, "AI service error. Please try again."}
	}
}
