package errs

import (
	"errors"
	"net/http"
)

// Tipos de error que cruzan capas. Cada transición falla completa o no
// falla: ningún error de este paquete implica un estado a medio escribir.

// Validation: entrada mal formada o id desconocido, detectado antes de
// cualquier llamada externa. Corregible por el usuario, nunca se reintenta.
type Validation struct{ Msg string }

func (e *Validation) Error() string { return e.Msg }

// Precondition: la entidad no está en un estado que permita la operación.
type Precondition struct{ Msg string }

func (e *Precondition) Error() string { return e.Msg }

// Conflict: el estado cambió de forma concurrente (el compare-and-set del
// repositorio no afectó filas). Se muestra como "actualiza la página".
type Conflict struct{ Msg string }

func (e *Conflict) Error() string { return e.Msg }

// PaymentGateway: fallo del procesador externo; conserva su mensaje.
// El usuario puede reintentar el checkout completo.
type PaymentGateway struct {
	Msg   string
	Cause error
}

func (e *PaymentGateway) Error() string { return e.Msg }
func (e *PaymentGateway) Unwrap() error { return e.Cause }

// Persistence: el escritor no aceptó la transición; no hubo commit parcial.
type Persistence struct {
	Msg   string
	Cause error
}

func (e *Persistence) Error() string { return e.Msg }
func (e *Persistence) Unwrap() error { return e.Cause }

func Validationf(msg string) error   { return &Validation{Msg: msg} }
func Preconditionf(msg string) error { return &Precondition{Msg: msg} }
func Conflictf(msg string) error     { return &Conflict{Msg: msg} }

// HTTPStatus mapea la taxonomía a códigos HTTP para los handlers.
func HTTPStatus(err error) int {
	var v *Validation
	var p *Precondition
	var c *Conflict
	var g *PaymentGateway
	switch {
	case errors.As(err, &v):
		return http.StatusBadRequest
	case errors.As(err, &p):
		return http.StatusUnprocessableEntity
	case errors.As(err, &c):
		return http.StatusConflict
	case errors.As(err, &g):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
