// Package auth provides the identity layer: a pluggable Provider, the
// Session state machine consumed by the CLI and TUI, and humanized
// error messages for provider failures.
package auth

import (
	"context"
	"errors"
	"fmt"
)

// User is the session-scoped projection of a provider account.
// Presence is explicit: a nil *User means signed out.
type User struct {
	UID           string `json:"uid"`
	Email         string `json:"email,omitempty"`
	DisplayName   string `json:"display_name,omitempty"`
	PhotoURL      string `json:"photo_url,omitempty"`
	EmailVerified bool   `json:"email_verified"`
}

// RegisterData is the input for account creation.
type RegisterData struct {
	Email       string
	Password    string
	DisplayName string
}

// Provider is the identity backend. Implementations emit a change event
// to every subscriber whenever the signed-in user changes, including at
// subscription time (current state replay).
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*User, error)
	SignUp(ctx context.Context, data RegisterData) (*User, error)
	SignOut(ctx context.Context) error
	// Current returns the signed-in user, or nil.
	Current(ctx context.Context) (*User, error)
	// Subscribe registers a session-change listener and returns the
	// unsubscribe func. The listener is called immediately with the
	// current user.
	Subscribe(fn func(*User)) func()
}

// Provider error codes. These mirror the wire-level codes a hosted
// identity service reports; HumanizeError maps them to user-facing text.
const (
	CodeUserNotFound      = "user-not-found"
	CodeWrongPassword     = "wrong-password"
	CodeEmailInUse        = "email-already-in-use"
	CodeWeakPassword      = "weak-password"
	CodeInvalidEmail      = "invalid-email"
	CodeTooManyRequests   = "too-many-requests"
	CodeNetworkFailed     = "network-request-failed"
	CodeInvalidCredential = "invalid-credential"
)

// CodedError carries a provider error code.
type CodedError struct {
	Code string
	Err  error
}

func (e *CodedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *CodedError) Unwrap() error {
	return e.Err
}

// NewCodedError creates a CodedError for the given code.
func NewCodedError(code string) *CodedError {
	return &CodedError{Code: code}
}

// CodeOf extracts the provider error code, or "" for uncoded errors.
func CodeOf(err error) string {
	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.Code
	}
	return ""
}

// humanMessages maps provider error codes to user-facing strings.
var humanMessages = map[string]string{
	CodeUserNotFound:      "No account found with this email.",
	CodeWrongPassword:     "Incorrect password.",
	CodeEmailInUse:        "This email is already registered.",
	CodeWeakPassword:      "Password is too weak. Use at least 6 characters.",
	CodeInvalidEmail:      "Invalid email address.",
	CodeTooManyRequests:   "Too many attempts. Try again later.",
	CodeNetworkFailed:     "Network error. Check your connection.",
	CodeInvalidCredential: "Invalid email or password.",
}

// genericAuthMessage is the fallback for unmapped codes.
const genericAuthMessage = "Authentication failed. Please try again."

// HumanizeError maps a provider error to a user-facing message.
func HumanizeError(err error) string {
	if err == nil {
		return ""
	}
	if msg, ok := humanMessages[CodeOf(err)]; ok {
		return msg
	}
	return genericAuthMessage
}
