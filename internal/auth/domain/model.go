package domain

import "strings"

const (
	RoleAdmin    = "ADMIN"
	RoleStaff    = "STAFF"
	RoleCustomer = "CUSTOMER"
)

// Identity is the verified caller behind a bearer token.
type Identity struct {
	UserID string
	Email  string
	Role   string
}

// NormalizeRole upper-cases role names issued by the auth provider.
func NormalizeRole(role string) string {
	return strings.ToUpper(strings.TrimSpace(role))
}
