package practicum

import "fmt"

// TransportError wraps a network-level failure (connection refused, timeout,
// DNS). Recoverable: the loop retries next interval.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "status api: transport: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// UnexpectedStatusError reports a non-200 HTTP response.
type UnexpectedStatusError struct {
	Code int
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("status api: unexpected HTTP status %d", e.Code)
}

// MalformedPayloadError reports a body that is not valid JSON.
type MalformedPayloadError struct {
	Err error
}

func (e *MalformedPayloadError) Error() string {
	return "status api: malformed payload: " + e.Err.Error()
}
func (e *MalformedPayloadError) Unwrap() error { return e.Err }

// SchemaError reports a syntactically valid response whose shape violates
// the API contract. Recoverable, but worth surfacing: it usually means the
// contract drifted.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string { return "status api: schema: " + e.Reason }
