package admin

import "time"

const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

type Admin struct {
	ID        int        `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Password  string     `json:"-"`
	Role      string     `json:"role"`
	IsActive  bool       `json:"is_active"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type LoginResponse struct {
	Success     bool   `json:"success"`
	AccessToken string `json:"token"`
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Role        string `json:"role"`
}

// DashboardStats summarizes guide applications for the admin dashboard.
type DashboardStats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Recent   int `json:"recent"`
}
