package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidInterval      ErrorCode = 102
	ErrCodeInvalidTimeRange     ErrorCode = 103

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202

	// Contestant errors (300-399)
	ErrCodeContestantConfig      ErrorCode = 300
	ErrCodeContestantInitFailed  ErrorCode = 301
	ErrCodeUnsupportedContestant ErrorCode = 302
	ErrCodeDuplicateContestant   ErrorCode = 303

	// Race errors (400-499)
	ErrCodeRunAborted        ErrorCode = 400
	ErrCodeRaceAlreadyRun    ErrorCode = 401
	ErrCodeRaceNoContestants ErrorCode = 402
	ErrCodeRaceNoDataSource  ErrorCode = 403

	// Oracle errors (500-599)
	ErrCodeOracleUnavailable   ErrorCode = 500
	ErrCodeOracleRequestFailed ErrorCode = 501
)
