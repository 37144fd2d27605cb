// Package errs envoltorios sobre cockroachdb/errors para marcar errores de
// infraestructura sin perder la causa original (que se conserva para logs y auditoría).
package errs

import (
	"fmt"
	"strings"

	cr "github.com/cockroachdb/errors"
)

func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return cr.Wrap(err, msg)
}

func New(msg string) error {
	return cr.New(msg)
}

// Mark asocia err con markErr: errors.Is(resultado, markErr) es verdadero y
// el mensaje sigue siendo el de err.
func Mark(err error, markErr error) error {
	if err == nil {
		return markErr
	}
	return cr.Mark(err, markErr)
}

// Is delega en cockroachdb/errors (entiende marcas además de wrapping).
func Is(err, reference error) bool {
	return cr.Is(err, reference)
}

// Cause devuelve el error más interno de la cadena.
func Cause(err error) error {
	return cr.Cause(err)
}

func ExtractStackLines(err error, maxLines int) []string {
	if err == nil {
		return nil
	}
	s := fmt.Sprintf("%+v", err)
	lines := strings.Split(s, "\n")
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	return lines
}
