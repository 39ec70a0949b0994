package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidOrder         ErrorCode = 102
	ErrCodeInvalidPeriod        ErrorCode = 103
	ErrCodeInvalidCapacity      ErrorCode = 104
	ErrCodeInvalidType          ErrorCode = 105
	ErrCodeMissingParameter     ErrorCode = 106
	ErrCodeInvalidTick          ErrorCode = 107

	// Data errors (200-299)
	ErrCodeBarNotFound      ErrorCode = 200
	ErrCodeStoreUnavailable ErrorCode = 201
	ErrCodeQueryFailed      ErrorCode = 202
	ErrCodeNoDataFound      ErrorCode = 203

	// Indicator errors (300-399)
	ErrCodeIndicatorNotFound      ErrorCode = 300
	ErrCodeIndicatorAlreadyExists ErrorCode = 301
	ErrCodeIndicatorCalculation   ErrorCode = 302
	ErrCodeValueNotAvailable      ErrorCode = 303

	// Strategy errors (400-499)
	ErrCodeConditionNotFound ErrorCode = 400
	ErrCodeInvalidTransition ErrorCode = 401

	// Trading errors (500-599)
	ErrCodeOrderFailed       ErrorCode = 500
	ErrCodeOrderNotFound     ErrorCode = 501
	ErrCodeStaleOrder        ErrorCode = 502
	ErrCodeInstrumentHalted  ErrorCode = 503
	ErrCodeDuplicateOCOGroup ErrorCode = 504

	// Engine errors (600-699)
	ErrCodeEngineNotInitialized ErrorCode = 600
	ErrCodeReplayFailed         ErrorCode = 601
	ErrCodeConfigLoadFailed     ErrorCode = 602
)
