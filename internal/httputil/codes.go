package httputil

// Machine-readable error codes returned alongside error messages so clients
// can branch without parsing message text.
const (
	CodeInvalidRequestBody   = "INVALID_REQUEST_BODY"
	CodeInvalidCredentials   = "INVALID_CREDENTIALS"
	CodeEmailRequired        = "EMAIL_REQUIRED"
	CodeInvalidEmailFormat   = "INVALID_EMAIL_FORMAT"
	CodeEmailAlreadyExists   = "EMAIL_ALREADY_EXISTS"
	CodePasswordRequired     = "PASSWORD_REQUIRED"
	CodePasswordTooShort     = "PASSWORD_TOO_SHORT"
	CodePasswordMismatch     = "PASSWORD_MISMATCH"
	CodeInvalidResetToken    = "INVALID_RESET_TOKEN"
	CodeRefreshTokenRequired = "REFRESH_TOKEN_REQUIRED"
	CodeInvalidRefreshToken  = "INVALID_REFRESH_TOKEN"
	CodeInvalidAuthHeader    = "INVALID_AUTH_HEADER"
	CodeMissingAuth          = "MISSING_AUTH"
	CodeTokenExpired         = "TOKEN_EXPIRED"
	CodeInvalidToken         = "INVALID_TOKEN"
	CodeInternalError        = "INTERNAL_ERROR"
)
