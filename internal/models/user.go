package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           int64     `json:"id" db:"id"`
	TenantID     int64     `json:"tenant_id" db:"tenant_id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Status      string       `json:"status"`
	Token       string       `json:"token"`
	User        PublicUser   `json:"user"`
	Greenhouses []Greenhouse `json:"greenhouses"`
}

// PublicUser is the user shape returned to clients, without the password hash.
type PublicUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	TenantID int64  `json:"tenant_id"`
	Role     string `json:"role,omitempty"`
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	TenantID *int64 `json:"tenant_id,omitempty"`
}

type RegisterResponse struct {
	Status  string     `json:"status"`
	Message string     `json:"message"`
	User    PublicUser `json:"user"`
}
