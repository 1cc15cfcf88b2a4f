package core

import "errors"

// Failure kinds returned by the ledger operations.
var (
	ErrDuplicateEmail     = errors.New("duplicate email")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("not found")
	ErrStorageRead        = errors.New("storage read failed")
	ErrStorageWrite       = errors.New("storage write failed")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrValidation         = errors.New("validation failed")
	ErrInternal           = errors.New("internal error")
)

// Failure is what an operation returns when it cannot complete. Message is
// safe to show to a user; Err keeps the underlying cause for logs.
type Failure struct {
	Kind    error
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return f.Message + ": " + f.Err.Error()
	}
	return f.Message
}

func (f *Failure) Unwrap() []error {
	if f.Err == nil {
		return []error{f.Kind}
	}
	return []error{f.Kind, f.Err}
}

// Fail builds a Failure of the given kind.
func Fail(kind error, message string, cause error) *Failure {
	return &Failure{Kind: kind, Message: message, Err: cause}
}

// Invalid turns a boundary validation error into an ErrValidation failure
// whose message is the error text, capitalized.
func Invalid(err error) *Failure {
	msg := err.Error()
	if msg != "" && msg[0] >= 'a' && msg[0] <= 'z' {
		msg = string(msg[0]-'a'+'A') + msg[1:]
	}
	return Fail(ErrValidation, msg, err)
}

// MessageOf returns the user-facing message for err.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var f *Failure
	if errors.As(err, &f) {
		return f.Message
	}
	return "Something went wrong"
}

// Result is the {success, message, data} envelope handed to UI callers.
type Result[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    *T     `json:"data,omitempty"`
}

// ResultOf folds an operation's return values into a Result.
func ResultOf[T any](data T, err error) Result[T] {
	if err != nil {
		return Result[T]{Message: MessageOf(err)}
	}
	return Result[T]{Success: true, Data: &data}
}

// Done is the data-less Result for operations such as delete.
func Done(err error) Result[struct{}] {
	if err != nil {
		return Result[struct{}]{Message: MessageOf(err)}
	}
	return Result[struct{}]{Success: true}
}
