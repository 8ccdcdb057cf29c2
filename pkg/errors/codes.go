package errors

import (
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
// Codes follow the "<MODULE>_<NNN>" convention; the module prefix drives
// ModuleForCode and CategoryForCode.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal       ErrorCode = "COMMON_001"
	ErrCodeBadRequest     ErrorCode = "COMMON_002"
	ErrCodeNotFound       ErrorCode = "COMMON_005"
	ErrCodeTimeout        ErrorCode = "COMMON_009"
	ErrCodeValidation     ErrorCode = "COMMON_010"
	ErrCodeSerialization  ErrorCode = "COMMON_011"
	ErrCodeCacheError     ErrorCode = "COMMON_013"
	ErrCodeStorageError   ErrorCode = "COMMON_017"
	ErrCodeMessagingError ErrorCode = "COMMON_018"
)

// Aliases used at call sites that read better with the short form.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeOK           = ErrorCode("OK")
	CodeUnknown      = ErrorCode("UNKNOWN")
)

// Element (periodic table) Error Codes
const (
	ErrCodeElementUnknown ErrorCode = "ELEM_001"
)

// Structure (XYZ) Error Codes
const (
	ErrCodeStructureParseFailed ErrorCode = "XYZ_001"
	ErrCodeStructureReadFailed  ErrorCode = "XYZ_002"
	ErrCodeStructureEmpty       ErrorCode = "XYZ_003"
	ErrCodeStructureNotFound    ErrorCode = "XYZ_004"
)

// Pair Index Error Codes
const (
	ErrCodeAtomIndexOutOfRange    ErrorCode = "PAIR_001"
	ErrCodeDegeneratePair         ErrorCode = "PAIR_002"
	ErrCodePairIndexParseFailed   ErrorCode = "PAIR_003"
	ErrCodePairIndexColumnMissing ErrorCode = "PAIR_004"
)

// Scheduling Error Codes
const (
	ErrCodeTaskFailed         ErrorCode = "SCHED_001"
	ErrCodeTaskPanicked       ErrorCode = "SCHED_002"
	ErrCodeRunCancelled       ErrorCode = "SCHED_003"
	ErrCodeInvalidWorkerCount ErrorCode = "SCHED_004"
)

// Output Error Codes
const (
	ErrCodeOutputWriteFailed ErrorCode = "OUT_001"
)

// Category groups codes into the failure classes reported in run summaries.
type Category string

const (
	CategoryLookup     Category = "LookupError"
	CategoryIndexRange Category = "IndexRangeError"
	CategoryParse      Category = "ParseError"
	CategoryScheduling Category = "SchedulingError"
	CategoryOther      Category = "Error"
)

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:       "internal error",
	ErrCodeBadRequest:     "bad request",
	ErrCodeNotFound:       "resource not found",
	ErrCodeTimeout:        "operation timed out",
	ErrCodeValidation:     "validation failed",
	ErrCodeSerialization:  "serialization failed",
	ErrCodeCacheError:     "cache error",
	ErrCodeStorageError:   "object storage error",
	ErrCodeMessagingError: "message publish error",

	ErrCodeElementUnknown: "unknown atomic symbol",

	ErrCodeStructureParseFailed: "failed to parse structure file",
	ErrCodeStructureReadFailed:  "failed to read structure file",
	ErrCodeStructureEmpty:       "structure file contains no atoms",
	ErrCodeStructureNotFound:    "structure file not found",

	ErrCodeAtomIndexOutOfRange:    "atom index out of range",
	ErrCodeDegeneratePair:         "pair references the same atom twice",
	ErrCodePairIndexParseFailed:   "failed to parse pair index",
	ErrCodePairIndexColumnMissing: "pair index is missing a required column",

	ErrCodeTaskFailed:         "file task failed",
	ErrCodeTaskPanicked:       "file task panicked",
	ErrCodeRunCancelled:       "run cancelled before all files completed",
	ErrCodeInvalidWorkerCount: "worker count must be at least 1",

	ErrCodeOutputWriteFailed: "failed to write feature output",
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}

// CategoryForCode classifies a code into one of the run-summary categories.
func CategoryForCode(code ErrorCode) Category {
	switch code {
	case ErrCodeElementUnknown:
		return CategoryLookup
	case ErrCodeAtomIndexOutOfRange, ErrCodeDegeneratePair:
		return CategoryIndexRange
	case ErrCodeStructureParseFailed, ErrCodeStructureReadFailed, ErrCodeStructureEmpty,
		ErrCodeStructureNotFound, ErrCodePairIndexParseFailed, ErrCodePairIndexColumnMissing:
		return CategoryParse
	case ErrCodeTaskFailed, ErrCodeTaskPanicked, ErrCodeRunCancelled, ErrCodeInvalidWorkerCount:
		return CategoryScheduling
	}
	return CategoryOther
}

// IsRowLevel reports whether a code only invalidates a single pair row, as
// opposed to a whole structure file or the run.
func IsRowLevel(code ErrorCode) bool {
	return CategoryForCode(code) == CategoryIndexRange
}

//Personal.AI order the ending
