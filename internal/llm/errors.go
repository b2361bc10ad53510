package llm

import "errors"

var (
	// ErrUnavailable indicates the model endpoint is unreachable.
	ErrUnavailable = errors.New("model endpoint unavailable")

	// ErrTimeout indicates the request exceeded the configured timeout.
	ErrTimeout = errors.New("llm request timed out")

	// ErrInvalidOutput indicates the response could not be parsed
	// into the expected structured format.
	ErrInvalidOutput = errors.New("invalid llm output format")

	// ErrRetryExhausted indicates all retry attempts have been exhausted.
	ErrRetryExhausted = errors.New("llm retry attempts exhausted")

	// ErrNoImage indicates an image call returned neither bytes nor a URL.
	ErrNoImage = errors.New("image response carried no image data")

	// ErrMissingAPIKey indicates the hosted endpoint was selected without credentials.
	ErrMissingAPIKey = errors.New("llm api key is not configured")
)
