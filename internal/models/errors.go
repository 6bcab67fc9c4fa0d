package models

import (
	"errors"
	"fmt"
	"sort"
)

// ErrorKey is the stable symbolic identifier of a rule violation. Clients
// receive the key (plus Params) and render it through their own localization.
type ErrorKey string

// Error categories map a key onto a transport-level outcome.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeUnavailable  = "UNAVAILABLE"
	CodeInternal     = "INTERNAL_ERROR"
)

const (
	// Content
	KeyPostNeedsContent        ErrorKey = "post_needs_content"
	KeyPostContentConflict     ErrorKey = "post_content_conflict"
	KeyPostConflictHrefPoll    ErrorKey = "post_conflict_href_poll"
	KeyPostHrefInvalid         ErrorKey = "post_href_invalid"
	KeyPostTitleInvalid        ErrorKey = "post_title_invalid"
	KeyPostPollEmpty           ErrorKey = "post_poll_empty"
	KeyPostPollOptionsConflict ErrorKey = "post_poll_options_conflict"
	KeyCommentContentConflict  ErrorKey = "comment_content_conflict"
	KeyCommentEmpty            ErrorKey = "comment_empty"
	KeyPostNotYours            ErrorKey = "post_not_yours"
	KeyCommentNotYours         ErrorKey = "comment_not_yours"
	KeyPostNotInCommunity      ErrorKey = "post_not_in_community"
	KeyPostNotLink             ErrorKey = "post_not_link"
	KeyPostNotPoll             ErrorKey = "post_not_poll"

	// Moderation
	KeyCommunityModeratorsNotLocal        ErrorKey = "community_moderators_not_local"
	KeyModeratorsOnlyLocal                ErrorKey = "moderators_only_local"
	KeyMustBeModerator                    ErrorKey = "must_be_moderator"
	KeyCommunityModeratorsRemoveMustBeOld ErrorKey = "community_moderators_remove_must_be_older"
	KeyCommunityEditDenied                ErrorKey = "community_edit_denied"
	KeyCommunityNotLocal                  ErrorKey = "community_not_local"
	KeyCommunityNameDisallowedChars       ErrorKey = "community_name_disallowed_chars"

	// Polls
	KeyPollIsClosed     ErrorKey = "poll_is_closed"
	KeyNoSuchPollOption ErrorKey = "no_such_poll_option"
	KeyPollSingleChoice ErrorKey = "poll_single_choice"

	// Accounts
	KeyNoPassword              ErrorKey = "no_password"
	KeyPasswordIncorrect       ErrorKey = "password_incorrect"
	KeyUserSuspended           ErrorKey = "user_suspended_error"
	KeyNotAdmin                ErrorKey = "not_admin"
	KeyUserNameDisallowedChars ErrorKey = "user_name_disallowed_chars"
	KeyUserEmailInvalid        ErrorKey = "user_email_invalid"
	KeyUserNoAvatar            ErrorKey = "user_no_avatar"
	KeySignupNotAllowed        ErrorKey = "signup_not_allowed"
	KeyNameInUse               ErrorKey = "name_in_use"
	KeyLoginNeeded             ErrorKey = "login_needed"

	// Lookups
	KeyNoSuchUser             ErrorKey = "no_such_user"
	KeyNoSuchLocalUserByName  ErrorKey = "no_such_local_user_by_name"
	KeyNoSuchLocalUserByEmail ErrorKey = "no_such_local_user_by_email"
	KeyNoSuchCommunity        ErrorKey = "no_such_community"
	KeyNoSuchPost             ErrorKey = "no_such_post"
	KeyNoSuchComment          ErrorKey = "no_such_comment"

	// Media
	KeyMediaUploadNotConfigured ErrorKey = "media_upload_not_configured"
	KeyMediaUploadNotImage      ErrorKey = "media_upload_not_image"
	KeyMediaUploadMissing       ErrorKey = "media_upload_missing"
	KeyMissingContentType       ErrorKey = "missing_content_type"
	KeyNoSuchAttachment         ErrorKey = "no_such_attachment"

	// Password reset
	KeyEmailNotConfigured      ErrorKey = "email_not_configured"
	KeyNoSuchForgotPasswordKey ErrorKey = "no_such_forgot_password_key"
)

var errorKeys = map[ErrorKey]string{
	KeyPostNeedsContent:        CodeValidation,
	KeyPostContentConflict:     CodeValidation,
	KeyPostConflictHrefPoll:    CodeValidation,
	KeyPostHrefInvalid:         CodeValidation,
	KeyPostTitleInvalid:        CodeValidation,
	KeyPostPollEmpty:           CodeValidation,
	KeyPostPollOptionsConflict: CodeValidation,
	KeyCommentContentConflict:  CodeValidation,
	KeyCommentEmpty:            CodeValidation,
	KeyPostNotYours:            CodeForbidden,
	KeyCommentNotYours:         CodeForbidden,
	KeyPostNotInCommunity:      CodeValidation,
	KeyPostNotLink:             CodeValidation,
	KeyPostNotPoll:             CodeValidation,

	KeyCommunityModeratorsNotLocal:        CodeValidation,
	KeyModeratorsOnlyLocal:                CodeValidation,
	KeyMustBeModerator:                    CodeForbidden,
	KeyCommunityModeratorsRemoveMustBeOld: CodeForbidden,
	KeyCommunityEditDenied:                CodeForbidden,
	KeyCommunityNotLocal:                  CodeValidation,
	KeyCommunityNameDisallowedChars:       CodeValidation,

	KeyPollIsClosed:     CodeValidation,
	KeyNoSuchPollOption: CodeValidation,
	KeyPollSingleChoice: CodeValidation,

	KeyNoPassword:              CodeValidation,
	KeyPasswordIncorrect:       CodeForbidden,
	KeyUserSuspended:           CodeForbidden,
	KeyNotAdmin:                CodeForbidden,
	KeyUserNameDisallowedChars: CodeValidation,
	KeyUserEmailInvalid:        CodeValidation,
	KeyUserNoAvatar:            CodeNotFound,
	KeySignupNotAllowed:        CodeForbidden,
	KeyNameInUse:               CodeConflict,
	KeyLoginNeeded:             CodeUnauthorized,

	KeyNoSuchUser:             CodeNotFound,
	KeyNoSuchLocalUserByName:  CodeValidation,
	KeyNoSuchLocalUserByEmail: CodeValidation,
	KeyNoSuchCommunity:        CodeNotFound,
	KeyNoSuchPost:             CodeNotFound,
	KeyNoSuchComment:          CodeNotFound,

	KeyMediaUploadNotConfigured: CodeUnavailable,
	KeyMediaUploadNotImage:      CodeValidation,
	KeyMediaUploadMissing:       CodeNotFound,
	KeyMissingContentType:       CodeValidation,
	KeyNoSuchAttachment:         CodeNotFound,

	KeyEmailNotConfigured:      CodeUnavailable,
	KeyNoSuchForgotPasswordKey: CodeValidation,
}

// AllErrorKeys returns every registered key in lexical order.
func AllErrorKeys() []ErrorKey {
	keys := make([]ErrorKey, 0, len(errorKeys))
	for k := range errorKeys {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Category returns the transport category registered for the key.
func (k ErrorKey) Category() string {
	if code, ok := errorKeys[k]; ok {
		return code
	}
	return CodeInternal
}

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code,omitempty"`
	Params map[string]string `json:"params,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Key     ErrorKey
	Params  map[string]string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Key)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match two keyed errors by key alone.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok || t.Key == "" {
		return false
	}
	return t.Key == e.Key
}

// WithParam returns a copy of e with a template parameter set.
func (e *AppError) WithParam(name, value string) *AppError {
	out := *e
	out.Params = make(map[string]string, len(e.Params)+1)
	for k, v := range e.Params {
		out.Params[k] = v
	}
	out.Params[name] = value
	return &out
}

// WithCause returns a copy of e wrapping err.
func (e *AppError) WithCause(err error) *AppError {
	out := *e
	out.Err = err
	return &out
}

// NewKeyedError builds the error for a registered key.
func NewKeyedError(key ErrorKey) *AppError {
	return &AppError{
		Code: key.Category(),
		Key:  key,
	}
}

// HasKey reports whether err (or anything it wraps) carries key.
func HasKey(err error, key ErrorKey) bool {
	return KeyOf(err) == key
}

// KeyOf extracts the symbolic key from err, or "" when err is not keyed.
func KeyOf(err error) ErrorKey {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Key
	}
	return ""
}

// NewValidationError is kept for payload problems that have no catalog key
// (malformed JSON, bad route params).
func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}
