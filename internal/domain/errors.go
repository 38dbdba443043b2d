package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrValidation          = errors.New("entrada inválida")
	ErrNotFound            = errors.New("recurso no encontrado")
	ErrConflict            = errors.New("conflicto con el estado actual")
	ErrInsufficientStock   = errors.New("stock insuficiente")
	ErrIdempotencyMismatch = errors.New("la clave de idempotencia ya se usó con otros parámetros")
	ErrPersistence         = errors.New("error de persistencia")
)

// ValidationError describe el campo rechazado. errors.Is(err, ErrValidation) es true.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation, e.Reason)
	}
	return fmt.Sprintf("%s: %s %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError construye un ValidationError.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// InsufficientStockError lleva la cantidad actual para mostrarla al usuario.
type InsufficientStockError struct {
	MaterialID string
	Current    int64
	Requested  int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("%s: actual %d, solicitado %d", ErrInsufficientStock, e.Current, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// PersistenceError envuelve un fallo del almacenamiento. Como toda escritura del
// motor de inventario ocurre en una sola transacción, nunca deja estado parcial.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrPersistence, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

// WrapPersistence envuelve err como PersistenceError salvo que ya sea un error de dominio.
func WrapPersistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsDomainError(err) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// IsDomainError indica si err pertenece a la taxonomía de dominio recuperable.
func IsDomainError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrIdempotencyMismatch) ||
		errors.Is(err, ErrPersistence)
}
