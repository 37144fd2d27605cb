package dto

// CreateClassRequest alta de una clase con su comité.
type CreateClassRequest struct {
	ClassID        string `json:"class_id" validate:"required,max=30"`
	Password       string `json:"password" validate:"required,min=6"`
	CommitteeCount int    `json:"committee_count" validate:"min=1,max=10"`
}

// CreateClassResponse clase creada y los usuarios generados.
type CreateClassResponse struct {
	ClassID string   `json:"class_id"`
	Users   []string `json:"users"`
}

// ClassListResponse ids de las clases (selector del login).
type ClassListResponse struct {
	Classes []string `json:"classes"`
}

// LoginRequest entrada para login de un miembro del comité.
type LoginRequest struct {
	ClassID  string `json:"class_id" validate:"required"`
	UserID   string `json:"user_id" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse salida con token JWT.
type LoginResponse struct {
	Token              string `json:"token"`
	ClassID            string `json:"class_id"`
	UserID             string `json:"user_id"`
	MustChangePassword bool   `json:"must_change_password"`
}

// ChangePasswordRequest cambio de contraseña (la inicial es obligatoria de cambiar).
type ChangePasswordRequest struct {
	NewPassword     string `json:"new_password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}
