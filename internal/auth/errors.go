package auth

// Closed set of auth error codes surfaced verbatim to clients. Anything
// outside this set collapses to a generic retry message at the handler.
const (
	CodeEmailInUse             = "auth/email-already-in-use"
	CodeRegisteredWithPassword = "auth/user-already-registered-with-email-password"
	CodeRegisteredWithGoogle   = "auth/user-already-registered-with-google"
	CodeInvalidCredentials     = "auth/invalid-credential"
)

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string { return e.Message }

var (
	ErrRegisteredWithPassword = &Error{Code: CodeRegisteredWithPassword, Message: "User is already registered with Email & Password. Please login."}
	ErrRegisteredWithGoogle   = &Error{Code: CodeRegisteredWithGoogle, Message: "User is already registered with Google. Please login using Google."}
	ErrEmailInUse             = &Error{Code: CodeEmailInUse, Message: "Email is already registered. Try to login."}
	ErrInvalidCredentials     = &Error{Code: CodeInvalidCredentials, Message: "Invalid credentials"}
)
