package domain

// ErrorCode identifies an expected step failure surfaced to the caller. The
// step does not advance; the caller re-prompts with a translated message.
type ErrorCode string

const (
	CodeValidation      ErrorCode = "VALIDATION_ERROR"
	CodeOTPInvalid      ErrorCode = "OTP_INVALID"
	CodeOTPExpired      ErrorCode = "OTP_EXPIRED"
	CodeOTPLocked       ErrorCode = "OTP_LOCKED"
	CodePhoneRegistered ErrorCode = "PHONE_ALREADY_REGISTERED"
	CodeEmailRegistered ErrorCode = "EMAIL_ALREADY_REGISTERED"
	CodeTokenFailed     ErrorCode = "TOKEN_ACQUISITION_FAILED"
	CodeProfileFailed   ErrorCode = "PROFILE_UPDATE_FAILED"
	CodePinInvalid      ErrorCode = "PIN_INVALID"
	CodePinLocked       ErrorCode = "PIN_LOCKED"
	CodeUnknown         ErrorCode = "UNKNOWN_ERROR"
)
