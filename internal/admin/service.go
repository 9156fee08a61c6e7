package admin

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"travelxguide/internal/auth"
	"travelxguide/internal/guide"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Repo is what the service needs from admin persistence.
type Repo interface {
	GetActiveByEmail(ctx context.Context, email string) (*Admin, error)
	UpdateLastLogin(ctx context.Context, id int) error
	EnsureSeed(ctx context.Context, name, email, hashedPassword string) error
}

// Applications is the slice of the guide repository the review workflow
// operates on.
type Applications interface {
	GetByID(ctx context.Context, id int) (*guide.Application, error)
	List(ctx context.Context, status string, page, limit int) ([]*guide.Application, int, error)
	UpdateStatus(ctx context.Context, id int, status, notes string, reviewedBy int) error
	SetActive(ctx context.Context, id int, active bool) error
	CountByStatus(ctx context.Context, status string) (int, error)
	CountSince(ctx context.Context, since time.Time) (int, error)
}

// Mailer is the slice of the outbound mailer used after a review.
type Mailer interface {
	SendApproval(ctx context.Context, to, name string) error
	SendRejection(ctx context.Context, to, name, notes string) error
}

type Service struct {
	repo   Repo
	apps   Applications
	mailer Mailer
	tokens *auth.Manager

	now func() time.Time
}

func NewService(repo Repo, apps Applications, mailer Mailer, tokens *auth.Manager) *Service {
	return &Service{
		repo:   repo,
		apps:   apps,
		mailer: mailer,
		tokens: tokens,
		now:    time.Now,
	}
}

func (s *Service) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	a, err := s.repo.GetActiveByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(a.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := s.repo.UpdateLastLogin(ctx, a.ID); err != nil {
		slog.Error("update last login", slog.Any("error", err), slog.Int("admin_id", a.ID))
	}

	ss, err := s.tokens.Sign(a.ID, a.Name, auth.RoleAdmin)
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		Success:     true,
		AccessToken: ss,
		ID:          a.ID,
		Name:        a.Name,
		Role:        a.Role,
	}, nil
}

func (s *Service) Applications(ctx context.Context, status string, page, limit int) ([]*guide.Application, guide.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	apps, total, err := s.apps.List(ctx, status, page, limit)
	if err != nil {
		return nil, guide.Pagination{}, err
	}

	totalPages := (total + limit - 1) / limit
	skip := (page - 1) * limit
	return apps, guide.Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		Total:       total,
		HasNext:     skip+len(apps) < total,
		HasPrev:     page > 1,
	}, nil
}

func (s *Service) Application(ctx context.Context, id int) (*guide.Application, error) {
	return s.apps.GetByID(ctx, id)
}

func (s *Service) Approve(ctx context.Context, id int, notes string, adminID int) error {
	app, err := s.apps.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.apps.UpdateStatus(ctx, id, guide.StatusApproved, notes, adminID); err != nil {
		return err
	}

	if err := s.mailer.SendApproval(ctx, app.Email, app.Name); err != nil {
		slog.Error("send approval email", slog.Any("error", err), slog.String("email", app.Email))
	}
	return nil
}

func (s *Service) Reject(ctx context.Context, id int, notes string, adminID int) error {
	app, err := s.apps.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.apps.UpdateStatus(ctx, id, guide.StatusRejected, notes, adminID); err != nil {
		return err
	}

	if err := s.mailer.SendRejection(ctx, app.Email, app.Name, notes); err != nil {
		slog.Error("send rejection email", slog.Any("error", err), slog.String("email", app.Email))
	}
	return nil
}

func (s *Service) SetGuideActive(ctx context.Context, id int, active bool) error {
	return s.apps.SetActive(ctx, id, active)
}

func (s *Service) Stats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}

	var err error
	if stats.Total, err = s.apps.CountByStatus(ctx, ""); err != nil {
		return nil, err
	}
	if stats.Pending, err = s.apps.CountByStatus(ctx, guide.StatusPending); err != nil {
		return nil, err
	}
	if stats.Approved, err = s.apps.CountByStatus(ctx, guide.StatusApproved); err != nil {
		return nil, err
	}
	if stats.Rejected, err = s.apps.CountByStatus(ctx, guide.StatusRejected); err != nil {
		return nil, err
	}
	if stats.Recent, err = s.apps.CountSince(ctx, s.now().AddDate(0, 0, -7)); err != nil {
		return nil, err
	}

	return stats, nil
}

// Seed creates the initial admin account unless one already exists.
func (s *Service) Seed(ctx context.Context, name, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	hashedPwd, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return err
	}

	return s.repo.EnsureSeed(ctx, name, email, string(hashedPwd))
}
