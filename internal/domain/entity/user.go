package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleCashier = "cashier"
)

// Estados de User.
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User representa un usuario del sistema.
type User struct {
	ID           string // UUID
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Name         string
	Role         string // admin, manager, cashier
	Status       string // active, inactive
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsValidRole indica si role es uno de los roles soportados.
func IsValidRole(role string) bool {
	return role == RoleAdmin || role == RoleManager || role == RoleCashier
}
