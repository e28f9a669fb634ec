package domain

import "time"

// ============================================================
// Tenants & users
// ============================================================

// Tenant is the property-management company that owns all scoped data.
type Tenant struct {
	ID          string    `json:"id"`
	CompanyName string    `json:"companyName"`
	Document    string    `json:"document"` // CPF or CNPJ, digits only
	Email       string    `json:"email"`
	CreatedAt   time.Time `json:"createdAt"`
}

// User is a back-office operator of a tenant.
type User struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenantId"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Role         string    `json:"role"` // owner, agent
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NewTenantAccount is what the signup wizard hands to the tenant store.
type NewTenantAccount struct {
	Tenant Tenant
	Owner  User
}

// AccessToken is issued after signup.
type AccessToken struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int    `json:"expiresIn"`
	TenantID    string `json:"tenantId"`
	UserID      string `json:"userId"`
}
