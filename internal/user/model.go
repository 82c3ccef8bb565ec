package user

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

type User struct {
	ID        string
	Name      string
	Email     string
	Password  string
	Phone     string
	Address   string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PublicUser is the shape returned to clients, without the password hash.
type PublicUser struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Role    Role   `json:"role"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		Phone:   u.Phone,
		Address: u.Address,
		Role:    u.Role,
	}
}
