package entity

import (
	"fmt"
	"regexp"
	"time"
)

// Límites al crear una clase.
const (
	MaxCommitteeMembers = 10
	MinPasswordLength   = 6
)

var classIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,30}$`)

// ValidClassID indica si el identificador de clase usa solo caracteres permitidos.
func ValidClassID(id string) bool {
	return classIDPattern.MatchString(id)
}

// Class representa la clase/puesto del festival (tenant del sistema).
type Class struct {
	ID             string
	CommitteeCount int
	CreatedAt      time.Time
}

// Admin miembro del comité con acceso al panel de administración.
type Admin struct {
	ClassID            string
	UserID             string // user01 … user10
	PasswordHash       string // bcrypt
	MustChangePassword bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// CommitteeUserID genera el id del n-ésimo miembro (1 → "user01").
func CommitteeUserID(n int) string {
	return fmt.Sprintf("user%02d", n)
}
