package errors

// Error code constants.
// Format: CATEGORY_SPECIFIC_DETAIL
// Admin clients map these codes to their own messages.

const (
	// ==================== Auth (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"        // login required
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS" // wrong username/password
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"       // token expired
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"       // malformed or forged token

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT" // bad request body
	ValidationRequired     = "VALIDATION_REQUIRED"      // missing required field
	ValidationInvalidRange = "VALIDATION_INVALID_RANGE" // value out of range

	// ==================== Resources (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"      // no matching row
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS" // conflicting row
	ResourceConflict      = "RESOURCE_CONFLICT"       // write conflict

	// ==================== Bindings (BINDING_) ====================
	BindingNotFound        = "BINDING_NOT_FOUND"        // tag is not bound
	BindingInvalidUID      = "BINDING_INVALID_UID"      // empty tag uid
	BindingInvalidPlaylist = "BINDING_INVALID_PLAYLIST" // empty playlist uri
	BindingInvalidPosition = "BINDING_INVALID_POSITION" // negative position

	// ==================== Export (EXPORT_) ====================
	ExportFailed = "EXPORT_FAILED" // workbook or upload failure

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"   // unexpected failure
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR" // storage unavailable
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"   // external service failure
)
