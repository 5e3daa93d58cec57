package domain

const (
	RoleAdmin  = "ADMIN"
	RoleSeller = "SELLER"
)

type User struct {
	ID         string `db:"id"`
	BusinessID string `db:"business_id"`
	Username   string `db:"username"`
	PinHash    string `db:"pin_hash"`
	Role       string `db:"role"` // ADMIN | SELLER
	Active     bool   `db:"active"`
}
