package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
)

// ErrNotFound is wrapped by NotFoundError; only point lookups by id return it.
var ErrNotFound = errors.New("registro não encontrado")

// ErrConsistency is wrapped by ConsistencyError.
var ErrConsistency = errors.New("falha de consistência")

// ValidationError rejects an operation before anything is written.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validação: " + strings.Join(parts, "; ")
}

func invalid(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// ConsistencyError means a coupled write only half succeeded (a sale without
// its attendance, a removal without its audit entry). Op names the coupling.
type ConsistencyError struct {
	Op  string
	Err error
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrConsistency.Error(), e.Op, e.Err)
}

func (e *ConsistencyError) Unwrap() []error { return []error{ErrConsistency, e.Err} }

type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s não encontrado", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// notFoundOr maps gorm.ErrRecordNotFound to NotFoundError and passes anything else through.
func notFoundOr(err error, kind, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Kind: kind, ID: id}
	}
	return err
}
