package guide

import (
	"context"
	"crypto/rand"
	"errors"
	"log/slog"
	"math/big"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"

	"travelxguide/internal/auth"
	"travelxguide/internal/mail"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotApproved        = errors.New("application is still under review")
	ErrNotVerified        = errors.New("email not verified")
	ErrAlreadyVerified    = errors.New("email already verified")
	ErrInvalidOTP         = errors.New("invalid OTP")
	ErrOTPExpired         = errors.New("OTP has expired")
	ErrAlreadyProcessed   = errors.New("application has already been processed")
)

const otpTTL = 10 * time.Minute

// Repo is what the service needs from persistence.
type Repo interface {
	Create(ctx context.Context, app *Application) (*Application, error)
	GetByEmail(ctx context.Context, email string) (*Application, error)
	GetByID(ctx context.Context, id int) (*Application, error)
	UpdateOTP(ctx context.Context, id int, otp string, expiresAt time.Time) error
	MarkVerified(ctx context.Context, id int) error
	ListApproved(ctx context.Context, f ApprovedFilter) ([]*Application, int, error)
}

// Mailer is the slice of the outbound mailer the guide workflow uses.
type Mailer interface {
	SendGuideApplicationNotice(ctx context.Context, app mail.ApplicationNotice) error
	SendVerificationOTP(ctx context.Context, to, name, otp string) error
}

type Service struct {
	repo   Repo
	mailer Mailer
	tokens *auth.Manager

	now func() time.Time
}

func NewService(repo Repo, mailer Mailer, tokens *auth.Manager) *Service {
	return &Service{
		repo:   repo,
		mailer: mailer,
		tokens: tokens,
		now:    time.Now,
	}
}

func (s *Service) Apply(ctx context.Context, req *ApplyRequest) error {
	if req.Name == "" || req.Email == "" || req.Phone == "" || req.Password == "" ||
		req.Experience == "" || len(req.Languages) == 0 || len(req.Destinations) == 0 ||
		req.Bio == "" || req.HourlyRate <= 0 {
		return errors.New("all fields are required")
	}

	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	hashedPwd, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		return err
	}

	otp, err := generateOTP()
	if err != nil {
		return err
	}
	expiresAt := s.now().Add(otpTTL)

	app := &Application{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Password:     string(hashedPwd),
		Experience:   req.Experience,
		Languages:    req.Languages,
		Destinations: req.Destinations,
		Bio:          req.Bio,
		HourlyRate:   req.HourlyRate,
		ProfileImage: req.ProfileImage,
		OTP:          otp,
		OTPExpiresAt: &expiresAt,
	}

	if _, err := s.repo.Create(ctx, app); err != nil {
		return err
	}

	// Email failures must not fail the application itself.
	if err := s.mailer.SendVerificationOTP(ctx, app.Email, app.Name, otp); err != nil {
		slog.Error("send verification email", slog.Any("error", err), slog.String("email", app.Email))
	}
	if err := s.mailer.SendGuideApplicationNotice(ctx, mail.ApplicationNotice{
		Name:         app.Name,
		Email:        app.Email,
		Phone:        app.Phone,
		Experience:   app.Experience,
		Languages:    app.Languages,
		Destinations: app.Destinations,
		Bio:          app.Bio,
		HourlyRate:   app.HourlyRate,
	}); err != nil {
		slog.Error("send admin notice", slog.Any("error", err))
	}

	return nil
}

func (s *Service) VerifyEmail(ctx context.Context, email, otp string) error {
	app, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	if app.EmailVerified {
		return ErrAlreadyVerified
	}
	if app.OTP == "" || app.OTP != otp {
		return ErrInvalidOTP
	}
	if app.OTPExpiresAt == nil || s.now().After(*app.OTPExpiresAt) {
		return ErrOTPExpired
	}

	return s.repo.MarkVerified(ctx, app.ID)
}

func (s *Service) ResendOTP(ctx context.Context, email string) error {
	app, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	if app.EmailVerified {
		return ErrAlreadyVerified
	}

	otp, err := generateOTP()
	if err != nil {
		return err
	}

	if err := s.repo.UpdateOTP(ctx, app.ID, otp, s.now().Add(otpTTL)); err != nil {
		return err
	}

	if err := s.mailer.SendVerificationOTP(ctx, app.Email, app.Name, otp); err != nil {
		slog.Error("send verification email", slog.Any("error", err), slog.String("email", app.Email))
	}

	return nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	app, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if app.Status != StatusApproved {
		return nil, ErrNotApproved
	}
	if !app.EmailVerified {
		return nil, ErrNotVerified
	}

	if err := bcrypt.CompareHashAndPassword([]byte(app.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	ss, err := s.tokens.Sign(app.ID, app.Name, auth.RoleGuide)
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		Success:     true,
		AccessToken: ss,
		ID:          app.ID,
		Name:        app.Name,
		Status:      app.Status,
		Rating:      app.Rating,
	}, nil
}

func (s *Service) Approved(ctx context.Context, f ApprovedFilter) ([]PublicGuide, Pagination, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}

	apps, total, err := s.repo.ListApproved(ctx, f)
	if err != nil {
		return nil, Pagination{}, err
	}

	guides := make([]PublicGuide, 0, len(apps))
	for _, app := range apps {
		guides = append(guides, app.Public())
	}

	return guides, paginate(f.Page, f.Limit, total, len(guides)), nil
}

func (s *Service) Profile(ctx context.Context, id int) (*Application, error) {
	return s.repo.GetByID(ctx, id)
}

func paginate(page, limit, total, returned int) Pagination {
	totalPages := (total + limit - 1) / limit
	skip := (page - 1) * limit
	return Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		Total:       total,
		HasNext:     skip+returned < total,
		HasPrev:     page > 1,
	}
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}
