package pkg

import (
	"errors"
	"fmt"
)

// Kind classifies an error by how it must be reported to the caller.
type Kind int

const (
	KindDependency Kind = iota
	KindUnauthorized
	KindForbidden
	KindInvalid
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindInvalid:
		return "invalid_request"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "dependency_failure"
	}
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on kind and message so sentinels survive wrapping.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Msg == e.Msg
}

func NewError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Dependency wraps a store or mail failure.
func Dependency(msg string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindDependency, Msg: msg, Err: err}
}

// KindOf reports the kind of err. Errors outside the taxonomy count as dependency failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindDependency
}

// Message is the user-displayable text of err. Dependency failures hide their cause.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return "internal server error"
}

// Details returns the underlying cause text, empty when there is none.
func Details(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Err != nil {
		return e.Err.Error()
	}
	if e == nil && err != nil {
		return err.Error()
	}
	return ""
}

var (
	ErrUnauthorized      = NewError(KindUnauthorized, "unauthorized")
	ErrBanned            = NewError(KindUnauthorized, "account banned")
	ErrForbidden         = NewError(KindForbidden, "admin privileges required")
	ErrInvalidID         = NewError(KindInvalid, "id is required")
	ErrPostNotFound      = NewError(KindNotFound, "trivia not found")
	ErrUserNotFound      = NewError(KindNotFound, "user not found")
	ErrCommentNotFound   = NewError(KindNotFound, "comment not found")
	ErrCategoryNotFound  = NewError(KindNotFound, "category not found")
	ErrRecipientNotFound = NewError(KindNotFound, "recipient not found")
	ErrSelfReaction      = NewError(KindConflict, "cannot react to own post")
	ErrAlreadyReacted    = NewError(KindConflict, "already reacted")
	ErrDuplicateAccount  = NewError(KindConflict, "username or email already registered")
	ErrInvalidCreds      = NewError(KindUnauthorized, "invalid username or password")
	ErrUnknownNotifyType = NewError(KindInvalid, "invalid notification type")
	ErrUserIDRequired    = NewError(KindInvalid, "userId is required")
	ErrNotOwner          = NewError(KindForbidden, "not the author")
	ErrDuplicateCategory = NewError(KindConflict, "category name or slug already exists")
)
