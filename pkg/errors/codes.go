package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeUnauthorized       ErrorCode = "COMMON_003"
	ErrCodeForbidden          ErrorCode = "COMMON_004"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeNotImplemented     ErrorCode = "COMMON_016"
)

// Sentinel codes that never map to a table entry.
const (
	CodeOK      ErrorCode = "OK"
	CodeUnknown ErrorCode = "UNKNOWN"
)

// User Module Error Codes
const (
	ErrCodeUserNotFound       ErrorCode = "USR_001"
	ErrCodeDuplicateEmail     ErrorCode = "USR_002"
	ErrCodeInvalidCredentials ErrorCode = "USR_003"
)

// Patent Module Error Codes
const (
	ErrCodePatentNotFound      ErrorCode = "PAT_001"
	ErrCodePatentStatusInvalid ErrorCode = "PAT_011"
)

// Document Module Error Codes
const (
	ErrCodeDocumentNotFound ErrorCode = "DOC_001"
	ErrCodeUploadFailed     ErrorCode = "DOC_002"
)

// Subscription Module Error Codes
const (
	ErrCodeSubscriptionNotFound ErrorCode = "SUB_001"
	ErrCodeSubscriptionExists   ErrorCode = "SUB_002"
	ErrCodePlanInvalid          ErrorCode = "SUB_003"
)

// AI Module Error Codes
const (
	ErrCodeAIModelNotAvailable ErrorCode = "AI_001"
	ErrCodeAnalysisFailed      ErrorCode = "AI_002"
	ErrCodeAIInputInvalid      ErrorCode = "AI_004"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeUserNotFound:       http.StatusNotFound,
	ErrCodeDuplicateEmail:     http.StatusConflict,
	ErrCodeInvalidCredentials: http.StatusUnauthorized,

	ErrCodePatentNotFound:      http.StatusNotFound,
	ErrCodePatentStatusInvalid: http.StatusBadRequest,

	ErrCodeDocumentNotFound: http.StatusNotFound,
	ErrCodeUploadFailed:     http.StatusInternalServerError,

	ErrCodeSubscriptionNotFound: http.StatusNotFound,
	ErrCodeSubscriptionExists:   http.StatusConflict,
	ErrCodePlanInvalid:          http.StatusBadRequest,

	ErrCodeAIModelNotAvailable: http.StatusServiceUnavailable,
	ErrCodeAnalysisFailed:      http.StatusBadGateway,
	ErrCodeAIInputInvalid:      http.StatusBadRequest,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeUnauthorized:       "not authenticated",
	ErrCodeForbidden:          "not authorized",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeUserNotFound:       "user not found",
	ErrCodeDuplicateEmail:     "email already exists",
	ErrCodeInvalidCredentials: "invalid email or password",

	ErrCodePatentNotFound:      "patent not found",
	ErrCodePatentStatusInvalid: "invalid patent status",

	ErrCodeDocumentNotFound: "document not found",
	ErrCodeUploadFailed:     "failed to upload document",

	ErrCodeSubscriptionNotFound: "subscription not found",
	ErrCodeSubscriptionExists:   "user already has an active subscription",
	ErrCodePlanInvalid:          "invalid plan selected",

	ErrCodeAIModelNotAvailable: "AI model not available",
	ErrCodeAnalysisFailed:      "analysis failed",
	ErrCodeAIInputInvalid:      "invalid input for AI model",
}

// errorCodeGraphQL maps ErrorCodes to the extension codes clients of the
// GraphQL surface switch on.
var errorCodeGraphQL = map[ErrorCode]string{
	ErrCodeUnauthorized:         "NOT_AUTHENTICATED",
	ErrCodeInvalidCredentials:   "INVALID_CREDENTIALS",
	ErrCodeForbidden:            "NOT_AUTHORIZED",
	ErrCodeNotFound:             "NOT_FOUND",
	ErrCodeUserNotFound:         "NOT_FOUND",
	ErrCodePatentNotFound:       "NOT_FOUND",
	ErrCodeDocumentNotFound:     "NOT_FOUND",
	ErrCodeSubscriptionNotFound: "NOT_FOUND",
	ErrCodeBadRequest:           "BAD_USER_INPUT",
	ErrCodeValidation:           "BAD_USER_INPUT",
	ErrCodePatentStatusInvalid:  "BAD_USER_INPUT",
	ErrCodePlanInvalid:          "BAD_USER_INPUT",
	ErrCodeAIInputInvalid:       "BAD_USER_INPUT",
	ErrCodeDuplicateEmail:       "EMAIL_EXISTS",
	ErrCodeSubscriptionExists:   "SUBSCRIPTION_EXISTS",
	ErrCodeUploadFailed:         "UPLOAD_FAILED",
	ErrCodeAnalysisFailed:       "ANALYSIS_FAILED",
	ErrCodeAIModelNotAvailable:  "ANALYSIS_FAILED",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// GraphQLCodeFor returns the GraphQL extension code for an ErrorCode.
func GraphQLCodeFor(code ErrorCode) string {
	if c, ok := errorCodeGraphQL[code]; ok {
		return c
	}
	return "INTERNAL_SERVER_ERROR"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 1 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
