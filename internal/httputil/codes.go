package httputil

// Machine-readable error codes returned alongside human messages so clients
// can branch without string matching.
const (
	CodeInvalidRequestBody = "invalid_request_body"
	CodeInternalError      = "internal_error"
	CodeTooManyRequests    = "too_many_requests"
	CodeCooldownActive     = "cooldown_active"

	// registration / signin
	CodeEmailAlreadyExists = "email_already_exists"
	CodeEmailRequired      = "email_required"
	CodeNameRequired       = "name_required"
	CodePasswordRequired   = "password_required"
	CodePasswordTooShort   = "password_too_short"
	CodeInvalidEmailFormat = "invalid_email_format"
	CodeInvalidCredentials = "invalid_credentials"

	// session credential
	CodeMissingAuth       = "missing_auth"
	CodeInvalidAuthHeader = "invalid_auth_header"
	CodeInvalidToken      = "invalid_token"
	CodeTokenExpired      = "token_expired"
	CodeUnknownSubject    = "unknown_subject"
	CodeForbidden         = "forbidden"

	// email verification
	CodeVerificationRequired = "verification_code_required"
	CodeVerificationNotFound = "verification_code_not_found"
	CodeVerificationMismatch = "verification_code_mismatch"
	CodeAlreadyVerified      = "already_verified"

	// catalog
	CodeMovieNotFound  = "movie_not_found"
	CodeReviewNotFound = "review_not_found"
	CodeInvalidRating  = "invalid_rating"
)
