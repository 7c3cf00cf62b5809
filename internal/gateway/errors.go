package gateway

import (
	"errors"
	"fmt"
)

// ErrTimeout reports that a request exceeded the configured deadline and was
// aborted.
var ErrTimeout = errors.New("request timed out")

// StatusError reports a non-success HTTP status from the endpoint.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d", e.Code)
}

// InvalidResponseError reports a body that was not parseable as JSON. It
// carries enough of the response to diagnose a misconfigured endpoint, which
// typically answers with an HTML error page.
type InvalidResponseError struct {
	Status      int
	ContentType string
	Snippet     string
}

func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("non-JSON response: http %d, content-type %q, body: %s",
		e.Status, e.ContentType, e.Snippet)
}

// RejectedError reports an ok:false envelope, i.e. the script itself refused
// the request.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	if e.Reason == "" {
		return "request rejected by endpoint"
	}
	return "request rejected by endpoint: " + e.Reason
}
