package randomorg

import "fmt"

// ResponseFormatError is returned when the service answered but the body
// was not a base-10 integer.
type ResponseFormatError struct {
	Body string
}

func (e *ResponseFormatError) Error() string {
	return fmt.Sprintf("unexpected random.org response: %q", e.Body)
}

// StatusError is returned by HTTPFetcher for non-2xx responses. Body holds
// the service's error text, e.g. "Error: The maximum value must be ...".
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Body)
}
