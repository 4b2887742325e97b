package baike

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// UpstreamRejectedError is returned when the Baike API answered with a
// non-2xx status.
type UpstreamRejectedError struct {
	StatusCode int
	Body       []byte
}

func (e *UpstreamRejectedError) Error() string {
	return fmt.Sprintf("baike api error: %d - %s", e.StatusCode, serializeBody(e.Body))
}

// Errmsg returns the errmsg field of a JSON error body, if any.
func (e *UpstreamRejectedError) Errmsg() string {
	if !gjson.ValidBytes(e.Body) {
		return ""
	}
	return gjson.GetBytes(e.Body, "errmsg").String()
}

// TransportError is returned when no response was received at all. Its
// message is the cause's message, unchanged.
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string { return e.Cause.Error() }

func (e *TransportError) Unwrap() error { return e.Cause }

// UnknownError covers everything else: requests that could not be built,
// undecodable success bodies and panics caught while serving a request.
type UnknownError struct {
	Cause error
}

func (e *UnknownError) Error() string {
	if e.Cause == nil {
		return "unknown error while fetching baike discussions"
	}
	return "unknown error while fetching baike discussions: " + e.Cause.Error()
}

func (e *UnknownError) Unwrap() error { return e.Cause }

// serializeBody renders a response body for an error message: valid JSON is
// compacted, anything else is quoted as a JSON string.
func serializeBody(body []byte) string {
	if len(body) > 0 && gjson.ValidBytes(body) {
		return gjson.GetBytes(body, "@ugly").Raw
	}
	bts, _ := json.Marshal(string(body))
	return string(bts)
}
