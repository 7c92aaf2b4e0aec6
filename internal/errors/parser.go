package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo pairs an error code with a caller-facing message
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError converts a storage or service error into an error code and a
// message safe to return to the caller. The row state is unchanged whenever
// one of these is returned: a rejected write never partially applies.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Code:    InternalServerError,
			Message: "An internal error occurred",
		}
	}

	errStrLower := strings.ToLower(err.Error())

	// 1. GORM base errors
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: getNotFoundMessage(context),
		}
	}

	// 2. Driver constraint errors. SQLite and Postgres word these
	// differently, so both spellings are matched.

	// 2-1. Unique / primary key violation
	if strings.Contains(errStrLower, "duplicate key") ||
		strings.Contains(errStrLower, "unique constraint") {
		return ErrorInfo{
			Code:    ResourceAlreadyExists,
			Message: "A row with this identifier already exists",
		}
	}

	// 2-2. Not null violation
	if strings.Contains(errStrLower, "not null constraint") ||
		(strings.Contains(errStrLower, "null value") && strings.Contains(errStrLower, "not-null constraint")) {
		if strings.Contains(errStrLower, "playlist_uri") {
			return ErrorInfo{Code: BindingInvalidPlaylist, Message: "A playlist URI is required"}
		}
		if strings.Contains(errStrLower, "uid") {
			return ErrorInfo{Code: BindingInvalidUID, Message: "A tag UID is required"}
		}
		return ErrorInfo{
			Code:    ValidationRequired,
			Message: "A required field is missing",
		}
	}

	// 2-3. Check constraint violation
	if strings.Contains(errStrLower, "check constraint") {
		return ErrorInfo{
			Code:    ValidationInvalidRange,
			Message: "A field value is out of range",
		}
	}

	// 3. Connectivity errors
	if strings.Contains(errStrLower, "connection refused") ||
		strings.Contains(errStrLower, "no such host") ||
		strings.Contains(errStrLower, "database is locked") ||
		strings.Contains(errStrLower, "timeout") {
		return ErrorInfo{
			Code:    InternalDatabaseError,
			Message: "Storage is unavailable, no change was applied",
		}
	}

	// 4. Default internal error
	return ErrorInfo{
		Code:    InternalServerError,
		Message: getDefaultErrorMessage(context),
	}
}

func getNotFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	if strings.Contains(contextLower, "binding") || strings.Contains(contextLower, "tag") {
		return "No binding exists for this tag"
	}
	if strings.Contains(contextLower, "playlist") {
		return "No tags are bound to this playlist"
	}
	return "The requested data was not found"
}

func getDefaultErrorMessage(context string) string {
	contextLower := strings.ToLower(context)

	if strings.Contains(contextLower, "upsert") || strings.Contains(contextLower, "register") {
		return "Failed to write the binding, no change was applied"
	}
	if strings.Contains(contextLower, "seed") || strings.Contains(contextLower, "import") {
		return "Failed to apply the seed batch, no change was applied"
	}
	if strings.Contains(contextLower, "export") {
		return "Failed to export bindings"
	}
	return "An internal error occurred, please try again later"
}
