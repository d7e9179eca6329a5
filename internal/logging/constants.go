package logging

// Standardized field names for the bridge's own diagnostics.
const (
	FieldDomain    = "domain"
	FieldCode      = "code"
	FieldLevel     = "level"
	FieldFile      = "file"
	FieldLine      = "line"
	FieldKey       = "key"
	FieldTag       = "payload_type"
	FieldSink      = "sink"
	FieldOperation = "operation"
	FieldCount     = "count"
	FieldInputFile = "input_file"
	FieldPanic     = "panic"
	FieldEventID   = "event_id"
	FieldPath      = "path"
)
