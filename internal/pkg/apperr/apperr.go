// Package apperr carries typed domain errors across the service boundary
// so handlers can map them to HTTP statuses and localizable codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindPermission
	KindNotFound
	KindConflict
	KindRule
)

// Machine-readable codes the UI can localize.
const (
	CodeCooldownActive     = "cooldown_active"
	CodeAtFullHealth       = "at_full_health"
	CodeInventoryFull      = "inventory_full"
	CodeAbilityCapReached  = "ability_cap_reached"
	CodeNoCoordinates      = "no_available_coordinates"
	CodeNotAvailable       = "not_available"
	CodeInsufficientGold   = "insufficient_gold"
	CodeLevelTooLow        = "level_too_low"
	CodeClassRestricted    = "class_restricted"
	CodeAlreadyOwned       = "already_owned"
	CodeAlreadyInClan      = "already_in_clan"
	CodeClanFull           = "clan_full"
	CodeQuestUnavailable   = "quest_unavailable"
	CodeInvalidTransition  = "invalid_transition"
	CodePrerequisiteCycle  = "prerequisite_cycle"
	CodeBattleNotActive    = "battle_not_active"
	CodeInvalidCredentials = "invalid_credentials"
)

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Permissionf(format string, args ...any) *Error {
	return &Error{Kind: KindPermission, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func Rulef(code, format string, args ...any) *Error {
	return &Error{Kind: KindRule, Code: code, Message: fmt.Sprintf(format, args...)}
}

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", Err: err}
}

// KindOf extracts the kind of err, defaulting to KindInternal for plain
// errors so database failures never leak details to callers.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

func CodeOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// MessageOf returns a caller-safe message for err.
func MessageOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "internal error"
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindConflict, KindRule:
		return http.StatusBadRequest
	case KindPermission:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
