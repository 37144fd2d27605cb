package domain

import (
	"errors"

	"github.com/jhoicas/festival-pos/pkg/errs"
)

// Errores de dominio. Los de acceso y cobro forman la taxonomía visible para el usuario.
var (
	ErrMissingParams     = errors.New("faltan classId o token")
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrWrongType         = errors.New("el token no corresponde a esta página")
	ErrExpired           = errors.New("token expirado")
	ErrAlreadyUsed       = errors.New("token ya utilizado")
	ErrInvalidQuantity   = errors.New("cantidad inválida")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrStoreUnavailable  = errors.New("operación fallida (permiso/conexión)")

	ErrEmptyCart              = errors.New("no hay productos seleccionados")
	ErrUnauthenticated        = errors.New("sesión no iniciada")
	ErrTokenNotPersisted      = errors.New("el token no quedó registrado (permisos/configuración)")
	ErrCheckoutInProgress     = errors.New("ya hay un cobro en curso")
	ErrInvalidInput           = errors.New("entrada inválida")
	ErrDuplicate              = errors.New("recurso duplicado")
	ErrUnauthorized           = errors.New("no autorizado")
	ErrForbidden              = errors.New("acceso denegado")
	ErrPasswordChangeRequired = errors.New("debe cambiar la contraseña inicial")
)

// Códigos de la taxonomía (etiquetas de métricas, auditoría y respuestas HTTP).
const (
	ReasonMissingParams          = "missing_params"
	ReasonNotFound               = "not_found"
	ReasonWrongType              = "wrong_type"
	ReasonExpired                = "expired"
	ReasonAlreadyUsed            = "already_used"
	ReasonInvalidQuantity        = "invalid_quantity"
	ReasonInsufficientStock      = "insufficient_stock"
	ReasonStoreUnavailable       = "store_unavailable"
	ReasonEmptyCart              = "empty_cart"
	ReasonUnauthenticated        = "unauthenticated"
	ReasonTokenNotPersisted      = "token_not_persisted"
	ReasonCheckoutInProgress     = "checkout_in_progress"
	ReasonInvalidInput           = "invalid_input"
	ReasonDuplicate              = "duplicate"
	ReasonUnauthorized           = "unauthorized"
	ReasonForbidden              = "forbidden"
	ReasonPasswordChangeRequired = "password_change_required"
	ReasonInternal               = "internal"
)

var reasons = []struct {
	err    error
	reason string
}{
	// Orden: las marcas de infraestructura ganan sobre cualquier otro error de la cadena.
	{ErrStoreUnavailable, ReasonStoreUnavailable},
	{ErrMissingParams, ReasonMissingParams},
	{ErrNotFound, ReasonNotFound},
	{ErrWrongType, ReasonWrongType},
	{ErrExpired, ReasonExpired},
	{ErrAlreadyUsed, ReasonAlreadyUsed},
	{ErrInvalidQuantity, ReasonInvalidQuantity},
	{ErrInsufficientStock, ReasonInsufficientStock},
	{ErrEmptyCart, ReasonEmptyCart},
	{ErrUnauthenticated, ReasonUnauthenticated},
	{ErrTokenNotPersisted, ReasonTokenNotPersisted},
	{ErrCheckoutInProgress, ReasonCheckoutInProgress},
	{ErrInvalidInput, ReasonInvalidInput},
	{ErrDuplicate, ReasonDuplicate},
	{ErrUnauthorized, ReasonUnauthorized},
	{ErrForbidden, ReasonForbidden},
	{ErrPasswordChangeRequired, ReasonPasswordChangeRequired},
}

// Reason devuelve el código de taxonomía de err (incluye errores marcados con errs.Mark).
// nil devuelve "" y un error desconocido devuelve "internal".
func Reason(err error) string {
	if err == nil {
		return ""
	}
	for _, r := range reasons {
		if errs.Is(err, r.err) {
			return r.reason
		}
	}
	return ReasonInternal
}

// IsGateDenial indica si el error es un rechazo del control de acceso por token
// (la página debe redirigir a login).
func IsGateDenial(err error) bool {
	switch Reason(err) {
	case ReasonMissingParams, ReasonWrongType, ReasonExpired, ReasonAlreadyUsed, ReasonUnauthenticated:
		return true
	}
	return false
}

// StoreUnavailable marca err como fallo de almacenamiento conservando la causa.
func StoreUnavailable(err error, op string) error {
	if err == nil {
		return nil
	}
	return errs.Mark(errs.Wrap(err, op), ErrStoreUnavailable)
}
