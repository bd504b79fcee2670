package shared

import "fmt"

var (
	// Schema errors
	ErrSchemaMismatch    = fmt.Errorf("schema mismatch")
	ErrIdentityMismatch  = fmt.Errorf("schema identity mismatch")
	ErrMigrationRequired = fmt.Errorf("migration required")

	// Data errors
	ErrUnknownEnumValue = fmt.Errorf("unknown enum value")
	ErrRecordNotFound   = fmt.Errorf("record not found")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
