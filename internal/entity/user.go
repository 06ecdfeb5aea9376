package entity

// Роли, приходящие из слоя аутентификации (вне ядра).
const (
	RoleCustomer   = "customer"
	RoleHotelOwner = "hotel_owner"
	RoleAdmin      = "admin"
)

type User struct {
	ID    int64  `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Email string `json:"email" db:"email"`
	Role  string `json:"role" db:"role"`
}
