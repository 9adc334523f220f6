package model

// Role names carried in the access token's "role" claim.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User is the slice of an account the booking engine needs.
// Registration and credentials live in the external auth service.
type User struct {
	ID    uint64 // users.id
	Email string // users.email
	Role  string // users.role (USER or ADMIN)
}
