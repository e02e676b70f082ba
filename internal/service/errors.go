package service

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

var (
	ErrValidation   = errors.New("validation")
	ErrDuplicate    = errors.New("duplicate")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrHasNotes     = errors.New("user has notes")
)

const (
	MsgAllFieldsRequired = "All fields are required"
	MsgUnauthorized      = "Unauthorized"
	MsgForbidden         = "Forbidden"

	MsgNoNotes            = "No notes found"
	MsgNoteNotFound       = "Note not found"
	MsgNoteIDRequired     = "Note ID required"
	MsgDuplicateNoteTitle = "Duplicate note title"
	MsgInvalidNoteData    = "Invalid note data received"
	MsgSearchQueryMissing = "Search query required"

	MsgNoUsers           = "No users found"
	MsgUserNotFound      = "User not found"
	MsgUserIDRequired    = "User ID required"
	MsgDuplicateUsername = "Duplicate username"
	MsgInvalidUserData   = "Invalid user data received"
	MsgUserHasNotes      = "User has assigned notes"
)

// Error pairs a taxonomy kind with the client-facing message. Kind is matched
// with errors.Is, Message is rendered as-is.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

var validate = validator.New()

// validateRequest reports a missing field as MsgAllFieldsRequired and any
// other rule violation as invalidMsg.
func validateRequest(req any, invalidMsg string) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return newError(ErrValidation, invalidMsg)
	}
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required", "min":
			return newError(ErrValidation, MsgAllFieldsRequired)
		}
	}
	return newError(ErrValidation, invalidMsg)
}
