package models

import (
	"time"

	"github.com/gocql/gocql"
)

// Rôles utilisateur
const (
	RoleCustomer = "customer"
	RoleSeller   = "seller"
	RoleAdmin    = "admin"
)

type User struct {
	ID              gocql.UUID `json:"id"`
	Email           string     `json:"email"`
	Password        string     `json:"-"`
	Name            string     `json:"name"`
	Role            string     `json:"role"`
	Phone           string     `json:"phone,omitempty"`
	CPF             string     `json:"cpf,omitempty"`
	Addresses       []Address  `json:"addresses,omitempty"`
	BodyPhoto       *Image     `json:"body_photo,omitempty"` // Photo pour le provador virtuel
	AsaasCustomerID string     `json:"asaas_customer_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type Address struct {
	Name         string `json:"name,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zip_code"`
	IsDefault    bool   `json:"is_default,omitempty"`
}
