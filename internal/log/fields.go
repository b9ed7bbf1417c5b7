package log

const (
	FieldComponent = "component"
	FieldCommand   = "command"
	FieldFormat    = "format"

	// Search
	FieldFragment   = "fragment"
	FieldSource     = "source"
	FieldIndex      = "index"
	FieldIdentifier = "identifier"
	FieldReference  = "reference"
	FieldAttempts   = "attempts"

	// Storage
	FieldDBPath = "db_path"
)
