package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown   ErrorCode = 1
	ErrCodeCancelled ErrorCode = 2

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidMomentum      ErrorCode = 102
	ErrCodeInvalidSchedule      ErrorCode = 103
	ErrCodeInvalidDensity       ErrorCode = 104
	ErrCodeInvalidCeiling       ErrorCode = 105
	ErrCodeInvalidPolicy        ErrorCode = 106

	// Configuration errors (200-299)
	ErrCodeConfigNotFound   ErrorCode = 200
	ErrCodeConfigParse      ErrorCode = 201
	ErrCodeInvalidVersion   ErrorCode = 202
	ErrCodeVersionMismatch  ErrorCode = 203
	ErrCodeSchemaGeneration ErrorCode = 204

	// Indicator errors (300-399)
	ErrCodeIndicatorSingularity ErrorCode = 300
	ErrCodeSurfaceEvaluation    ErrorCode = 301

	// Storage errors (400-499)
	ErrCodeStoreUnavailable ErrorCode = 400
	ErrCodeStoreQuery       ErrorCode = 401
	ErrCodeStoreExport      ErrorCode = 402

	// Render errors (500-599)
	ErrCodeRenderFailed ErrorCode = 500
	ErrCodeServerFailed ErrorCode = 501
)
