// Package models содержит доменные структуры маркетплейса и вспомогательные
// типы для приёма данных из JSON-запросов.
package models

import "time"

// Роли пользователей.
const (
	RoleTechnician = "technician"
	RoleEmployer   = "employer"
	RoleAdmin      = "admin"
)

// User представляет зарегистрированного пользователя системы.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// DummyRegister тело запроса регистрации.
type DummyRegister struct {
	Username  string `json:"username" validate:"required,min=3,max=150"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	Role      string `json:"role" validate:"required,oneof=technician employer"`
	FirstName string `json:"first_name" validate:"omitempty,max=150"`
	LastName  string `json:"last_name" validate:"omitempty,max=150"`
}

// DummyLogin тело запроса входа.
type DummyLogin struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}
