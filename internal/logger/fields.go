package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Standard tracing fields, propagated through the call chain via context.
const (
	// FieldRequestID is the HTTP request ID (UUID).
	FieldRequestID = "request_id"

	// FieldQueryID is the search-query ID being processed.
	FieldQueryID = "query_id"

	// FieldComponent is the component/module name.
	FieldComponent = "component"

	// FieldURL is the candidate URL under processing.
	FieldURL = "url"
)

// Standard metric fields, attached at the call site.
const (
	// FieldDurationMs is the execution duration in milliseconds.
	FieldDurationMs = "duration_ms"

	// FieldCount is a generic count field.
	FieldCount = "count"

	// FieldStatus is the operation status.
	FieldStatus = "status"
)
