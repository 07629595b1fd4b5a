package session

// Generic messages used when the backend gives no reason.
const (
	msgLoginFailed        = "Login failed"
	msgRegistrationFailed = "Registration failed"
)

// Failure is the structured result of an unsuccessful login or registration.
// Message is safe to show the user as is.
type Failure struct {
	Op      string // "login" or "register"
	Role    string
	Message string
	Err     error
}

func (f *Failure) Error() string {
	return f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}
