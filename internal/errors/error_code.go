package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Configuration errors (100-199)
	ErrCodeInvalidConfiguration ErrorCode = 100
	ErrCodeInvalidPeriod        ErrorCode = 101

	// Source errors (200-299)
	ErrCodeSourceUnavailable ErrorCode = 200
	ErrCodeEmptyResult       ErrorCode = 201
	ErrCodeMissingCredential ErrorCode = 202
	ErrCodeParseFailed       ErrorCode = 203
	ErrCodeUnknownSource     ErrorCode = 204

	// Persistence errors (300-399)
	ErrCodePersistenceFailure ErrorCode = 300
	ErrCodeCorruptHistory     ErrorCode = 301

	// Aggregation errors (400-499)
	ErrCodeUnknownCategory ErrorCode = 400

	// Notification errors (500-599)
	ErrCodeNotificationFailed ErrorCode = 500
)

var codeNames = map[ErrorCode]string{
	ErrCodeUnknown:              "unknown",
	ErrCodeInvalidConfiguration: "invalid_configuration",
	ErrCodeInvalidPeriod:        "invalid_period",
	ErrCodeSourceUnavailable:    "source_unavailable",
	ErrCodeEmptyResult:          "empty_result",
	ErrCodeMissingCredential:    "missing_credential",
	ErrCodeParseFailed:          "parse_failed",
	ErrCodeUnknownSource:        "unknown_source",
	ErrCodePersistenceFailure:   "persistence_failure",
	ErrCodeCorruptHistory:       "corrupt_history",
	ErrCodeUnknownCategory:      "unknown_category",
	ErrCodeNotificationFailed:   "notification_failed",
}

// String returns the snake_case name of the code, used as a log and metric label.
func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}

	return codeNames[ErrCodeUnknown]
}
