package models

type Role string

const (
	RoleAdmin         Role = "ADMIN"
	RoleCoach         Role = "COACH"
	RoleSportsOfficer Role = "SPORTS_OFFICER"
	RoleStudent       Role = "STUDENT"
)

// Valid — роль из закрытого набора, который знает бэкенд.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCoach, RoleSportsOfficer, RoleStudent:
		return true
	}
	return false
}

// IsStaff — тренеры, спортивные офицеры и админы: им доступны списки, отметки и отчёты.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleCoach || r == RoleSportsOfficer
}

func (r Role) Title() string {
	switch r {
	case RoleAdmin:
		return "Admin"
	case RoleCoach:
		return "Coach"
	case RoleSportsOfficer:
		return "Sports officer"
	case RoleStudent:
		return "Student"
	default:
		return string(r)
	}
}

type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// User — идентичность из ответа логина (то, что кладём в хранилище под ключом "user").
func (r LoginResponse) User() User {
	return User{ID: r.ID, Email: r.Email, Role: r.Role}
}

type RegisterRequest struct {
	Email         string `json:"email" validate:"required,email,institutional_email"`
	Password      string `json:"password" validate:"required,min=6"`
	StudentID     string `json:"studentId" validate:"required"`
	Name          string `json:"name" validate:"required"`
	Faculty       string `json:"faculty" validate:"required"`
	Year          int    `json:"year" validate:"gte=1"`
	ContactNumber string `json:"contactNumber,omitempty"`
}
