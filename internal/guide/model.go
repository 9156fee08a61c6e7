package guide

import "time"

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

type Application struct {
	ID             int        `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	Password       string     `json:"-"`
	Experience     string     `json:"experience"`
	Languages      []string   `json:"languages"`
	Destinations   []string   `json:"destinations"`
	Bio            string     `json:"bio"`
	HourlyRate     float64    `json:"hourly_rate"`
	ProfileImage   string     `json:"profile_image"`
	Status         string     `json:"status"`
	AdminNotes     string     `json:"admin_notes,omitempty"`
	ReviewedBy     *int       `json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time `json:"reviewed_at,omitempty"`
	IsActive       bool       `json:"is_active"`
	Rating         float64    `json:"rating"`
	TotalReviews   int        `json:"total_reviews"`
	ToursCompleted int        `json:"tours_completed"`
	OTP            string     `json:"-"`
	OTPExpiresAt   *time.Time `json:"-"`
	EmailVerified  bool       `json:"email_verified"`
	CreatedAt      time.Time  `json:"created_at"`
}

// PublicGuide is the listing view of an approved guide. Review notes and
// moderation fields stay internal.
type PublicGuide struct {
	ID             int      `json:"id"`
	Name           string   `json:"name"`
	Experience     string   `json:"experience"`
	Languages      []string `json:"languages"`
	Destinations   []string `json:"destinations"`
	Bio            string   `json:"bio"`
	HourlyRate     float64  `json:"hourly_rate"`
	ProfileImage   string   `json:"profile_image"`
	Rating         float64  `json:"rating"`
	TotalReviews   int      `json:"total_reviews"`
	ToursCompleted int      `json:"tours_completed"`
}

func (a *Application) Public() PublicGuide {
	return PublicGuide{
		ID:             a.ID,
		Name:           a.Name,
		Experience:     a.Experience,
		Languages:      a.Languages,
		Destinations:   a.Destinations,
		Bio:            a.Bio,
		HourlyRate:     a.HourlyRate,
		ProfileImage:   a.ProfileImage,
		Rating:         a.Rating,
		TotalReviews:   a.TotalReviews,
		ToursCompleted: a.ToursCompleted,
	}
}

type ApplyRequest struct {
	Name         string
	Email        string
	Phone        string
	Password     string
	Experience   string
	Languages    []string
	Destinations []string
	Bio          string
	HourlyRate   float64
	ProfileImage string
}

type LoginResponse struct {
	Success     bool    `json:"success"`
	AccessToken string  `json:"token"`
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Status      string  `json:"status"`
	Rating      float64 `json:"rating"`
}

// Pagination mirrors the envelope the frontend expects on listings.
type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	Total       int  `json:"total"`
	HasNext     bool `json:"hasNext"`
	HasPrev     bool `json:"hasPrev"`
}
