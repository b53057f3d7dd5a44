package constants

// Roster error codes returned in API responses.

// Input errors
const (
	ErrCodeEmptyBatch        = "EMPTY_BATCH"
	ErrCodeInvalidMode       = "INVALID_MODE"
	ErrCodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	ErrCodeMissingColumns    = "MISSING_COLUMNS"
	ErrCodeNoRows            = "NO_ROWS"
	ErrCodeMalformedRequest  = "MALFORMED_REQUEST"
)

// Roster errors
const (
	ErrCodeGuestNotFound        = "GUEST_NOT_FOUND"
	ErrCodeRosterLoading        = "ROSTER_LOADING"
	ErrCodePartialBatch         = "PARTIAL_BATCH"
	ErrCodeInsufficientHistory  = "INSUFFICIENT_HISTORY"
	ErrCodeReplaceInProgress    = "REPLACE_IN_PROGRESS"
	ErrCodeConsoleNotRegistered = "CONSOLE_NOT_REGISTERED"
)

// Credential errors
const (
	ErrCodeInvalidCredential = "INVALID_CREDENTIAL"
	ErrCodeAdminDisabled     = "ADMIN_DISABLED"
	ErrCodeInvalidToken      = "INVALID_TOKEN"
	ErrCodeRateLimited       = "RATE_LIMITED"
)

const ErrCodeInternal = "INTERNAL_ERROR"

var RosterErrorMessages = map[string]string{
	// Input
	ErrCodeEmptyBatch:        "The uploaded file contains no guests",
	ErrCodeInvalidMode:       "Upload mode must be full or append",
	ErrCodeUnsupportedFormat: "Only Excel workbooks (.xlsx, .xlsm, .xltx, .xltm) are accepted",
	ErrCodeMissingColumns:    "Could not find the reservation code, client name and room columns",
	ErrCodeNoRows:            "The spreadsheet has no data rows",
	ErrCodeMalformedRequest:  "The request could not be read",

	// Roster
	ErrCodeGuestNotFound:        "The guest is no longer on the roster",
	ErrCodeRosterLoading:        "The roster is still loading. Try again in a moment",
	ErrCodePartialBatch:         "The roster update stopped partway. Run a full upload again to recover",
	ErrCodeInsufficientHistory:  "At least two history entries are needed to draw a trend",
	ErrCodeReplaceInProgress:    "Another full upload is in progress",
	ErrCodeConsoleNotRegistered: "Open the roster before tapping guests",

	// Credentials
	ErrCodeInvalidCredential: "Incorrect master password",
	ErrCodeAdminDisabled:     "Clearing history is disabled on this server",
	ErrCodeInvalidToken:      "Admin token is missing, expired or already used",
	ErrCodeRateLimited:       "Too many requests. Please slow down",

	ErrCodeInternal: "An unexpected error occurred",
}

// GetErrorMessage returns the human-readable message for an error code
func GetErrorMessage(code string) string {
	if msg, exists := RosterErrorMessages[code]; exists {
		return msg
	}
	return "An unknown error occurred"
}
