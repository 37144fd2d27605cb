package entity

// Roles de sesión.
const (
	RoleAdmin = "admin"
	RoleCash  = "cash"
	RoleView  = "view"
)

// Session contexto explícito de quién opera y sobre qué clase. Se construye una vez
// al autenticar (JWT de admin o token QR) y se pasa a cada caso de uso.
type Session struct {
	ClassID            string
	UserID             string
	Role               string
	Token              string // token QR presentado; vacío si la sesión viene de un admin
	MustChangePassword bool
}

// Actor nombre a registrar en historiales (precio, auditoría).
func (s Session) Actor() string {
	if s.UserID != "" {
		return s.UserID
	}
	return s.Role
}
