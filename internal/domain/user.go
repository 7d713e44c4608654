package domain

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Papéis de acesso dos operadores da API
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
)

// User é um operador autorizado a consultar resultados e disparar execuções
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         string
	Enabled      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin retorna verdadeiro quando o usuário tem papel de administrador
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UpdateUserRequest carrega as alterações parciais de um usuário. Campos nil
// permanecem inalterados.
type UpdateUserRequest struct {
	ID      string  `json:"id"`
	Name    *string `json:"name,omitempty"`
	Email   *string `json:"email,omitempty"`
	Role    *string `json:"role,omitempty"`
	Enabled *bool   `json:"enabled,omitempty"`
}

// Claims são as informações do usuário embutidas no token JWT
type Claims struct {
	UserID      string `json:"user_id"`
	UserName    string `json:"user_name"`
	UserEmail   string `json:"user_email"`
	UserRole    string `json:"user_role"`
	UserEnabled bool   `json:"user_enabled"`
	jwt.RegisteredClaims
}
