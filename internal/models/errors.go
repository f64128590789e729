package models

import (
	"errors"
	"fmt"
)

// ErrorKind is the stable machine-readable classification returned to
// callers alongside the human-readable message.
type ErrorKind string

const (
	ErrValidation        ErrorKind = "validation"
	ErrState             ErrorKind = "state"
	ErrConflict          ErrorKind = "conflict"
	ErrInsufficientFunds ErrorKind = "insufficient_funds"
	ErrExternalService   ErrorKind = "external_service"
	ErrPersistence       ErrorKind = "persistence"
)

type GameError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *GameError) Error() string {
	return e.Message
}

func NewGameError(kind ErrorKind, format string, args ...interface{}) *GameError {
	return &GameError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func ValidationError(format string, args ...interface{}) *GameError {
	return NewGameError(ErrValidation, format, args...)
}

func StateError(format string, args ...interface{}) *GameError {
	return NewGameError(ErrState, format, args...)
}

func ConflictError(format string, args ...interface{}) *GameError {
	return NewGameError(ErrConflict, format, args...)
}

func InsufficientFundsError(format string, args ...interface{}) *GameError {
	return NewGameError(ErrInsufficientFunds, format, args...)
}

func PersistenceError(format string, args ...interface{}) *GameError {
	return NewGameError(ErrPersistence, format, args...)
}

// KindOf extracts the kind from any error; unclassified errors report as
// persistence failures so they are never mistaken for caller mistakes.
func KindOf(err error) ErrorKind {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return ErrPersistence
}
