package guide

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelxguide/internal/auth"
	"travelxguide/internal/mail"
)

type fakeRepo struct {
	byEmail map[string]*Application
	nextID  int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byEmail: make(map[string]*Application)}
}

func (r *fakeRepo) Create(_ context.Context, app *Application) (*Application, error) {
	r.nextID++
	app.ID = r.nextID
	app.Status = StatusPending
	app.IsActive = true
	app.CreatedAt = time.Now()
	r.byEmail[app.Email] = app
	return app, nil
}

func (r *fakeRepo) GetByEmail(_ context.Context, email string) (*Application, error) {
	app, ok := r.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return app, nil
}

func (r *fakeRepo) GetByID(_ context.Context, id int) (*Application, error) {
	for _, app := range r.byEmail {
		if app.ID == id {
			return app, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fakeRepo) UpdateOTP(_ context.Context, id int, otp string, expiresAt time.Time) error {
	for _, app := range r.byEmail {
		if app.ID == id {
			app.OTP = otp
			app.OTPExpiresAt = &expiresAt
			return nil
		}
	}
	return ErrNotFound
}

func (r *fakeRepo) MarkVerified(_ context.Context, id int) error {
	for _, app := range r.byEmail {
		if app.ID == id {
			app.EmailVerified = true
			app.OTP = ""
			app.OTPExpiresAt = nil
			return nil
		}
	}
	return ErrNotFound
}

func (r *fakeRepo) ListApproved(_ context.Context, f ApprovedFilter) ([]*Application, int, error) {
	var approved []*Application
	for _, app := range r.byEmail {
		if app.Status == StatusApproved && app.IsActive {
			approved = append(approved, app)
		}
	}

	total := len(approved)
	start := (f.Page - 1) * f.Limit
	if start > total {
		start = total
	}
	end := start + f.Limit
	if end > total {
		end = total
	}
	return approved[start:end], total, nil
}

type fakeMailer struct {
	otps    []string
	notices []mail.ApplicationNotice
}

func (m *fakeMailer) SendVerificationOTP(_ context.Context, _, _, otp string) error {
	m.otps = append(m.otps, otp)
	return nil
}

func (m *fakeMailer) SendGuideApplicationNotice(_ context.Context, app mail.ApplicationNotice) error {
	m.notices = append(m.notices, app)
	return nil
}

func validApplyRequest() *ApplyRequest {
	return &ApplyRequest{
		Name:         "Ravi Kumar",
		Email:        "ravi@example.com",
		Phone:        "+91-9876543210",
		Password:     "secret123",
		Experience:   "5 years leading Himalayan treks",
		Languages:    []string{"English", "Hindi"},
		Destinations: []string{"Manali", "Leh"},
		Bio:          "Certified mountain guide.",
		HourlyRate:   25,
	}
}

func newTestService() (*Service, *fakeRepo, *fakeMailer) {
	repo := newFakeRepo()
	mailer := &fakeMailer{}
	svc := NewService(repo, mailer, auth.NewManager("test-secret"))
	return svc, repo, mailer
}

func TestApply(t *testing.T) {
	svc, repo, mailer := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.Apply(ctx, validApplyRequest()))

	app, err := repo.GetByEmail(ctx, "ravi@example.com")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, app.Status)
	assert.False(t, app.EmailVerified)
	assert.Len(t, app.OTP, 6)
	assert.NotEqual(t, "secret123", app.Password, "password must be hashed")

	require.Len(t, mailer.otps, 1)
	assert.Equal(t, app.OTP, mailer.otps[0])
	require.Len(t, mailer.notices, 1)
	assert.Equal(t, "Ravi Kumar", mailer.notices[0].Name)
}

func TestApplyValidation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*ApplyRequest)
	}{
		{"missing name", func(r *ApplyRequest) { r.Name = "" }},
		{"missing email", func(r *ApplyRequest) { r.Email = "" }},
		{"missing phone", func(r *ApplyRequest) { r.Phone = "" }},
		{"missing password", func(r *ApplyRequest) { r.Password = "" }},
		{"missing experience", func(r *ApplyRequest) { r.Experience = "" }},
		{"no languages", func(r *ApplyRequest) { r.Languages = nil }},
		{"no destinations", func(r *ApplyRequest) { r.Destinations = nil }},
		{"missing bio", func(r *ApplyRequest) { r.Bio = "" }},
		{"zero rate", func(r *ApplyRequest) { r.HourlyRate = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validApplyRequest()
			tt.mutate(req)
			assert.Error(t, svc.Apply(ctx, req))
		})
	}
}

func TestApplyDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.Apply(ctx, validApplyRequest()))
	assert.ErrorIs(t, svc.Apply(ctx, validApplyRequest()), ErrEmailTaken)
}

func TestVerifyEmail(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.Apply(ctx, validApplyRequest()))
	app, _ := repo.GetByEmail(ctx, "ravi@example.com")

	assert.ErrorIs(t, svc.VerifyEmail(ctx, "nobody@example.com", "123456"), ErrNotFound)
	assert.ErrorIs(t, svc.VerifyEmail(ctx, app.Email, "000000"), ErrInvalidOTP)

	require.NoError(t, svc.VerifyEmail(ctx, app.Email, app.OTP))
	assert.True(t, app.EmailVerified)
	assert.Empty(t, app.OTP)

	assert.ErrorIs(t, svc.VerifyEmail(ctx, app.Email, "123456"), ErrAlreadyVerified)
}

func TestVerifyEmailExpiredOTP(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.Apply(ctx, validApplyRequest()))
	app, _ := repo.GetByEmail(ctx, "ravi@example.com")

	svc.now = func() time.Time { return time.Now().Add(11 * time.Minute) }

	assert.ErrorIs(t, svc.VerifyEmail(ctx, app.Email, app.OTP), ErrOTPExpired)
}

func TestResendOTP(t *testing.T) {
	svc, repo, mailer := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.Apply(ctx, validApplyRequest()))
	app, _ := repo.GetByEmail(ctx, "ravi@example.com")
	firstOTP := app.OTP

	require.NoError(t, svc.ResendOTP(ctx, app.Email))
	assert.Len(t, mailer.otps, 2)
	assert.Equal(t, app.OTP, mailer.otps[1])
	_ = firstOTP // a fresh code may collide by chance, so only delivery is asserted

	require.NoError(t, repo.MarkVerified(ctx, app.ID))
	assert.ErrorIs(t, svc.ResendOTP(ctx, app.Email), ErrAlreadyVerified)
}

func TestLoginGates(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.Apply(ctx, validApplyRequest()))
	app, _ := repo.GetByEmail(ctx, "ravi@example.com")

	_, err := svc.Login(ctx, app.Email, "secret123")
	assert.ErrorIs(t, err, ErrNotApproved)

	app.Status = StatusApproved
	_, err = svc.Login(ctx, app.Email, "secret123")
	assert.ErrorIs(t, err, ErrNotVerified)

	app.EmailVerified = true
	_, err = svc.Login(ctx, app.Email, "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	res, err := svc.Login(ctx, app.Email, "secret123")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, app.ID, res.ID)

	claims, err := auth.NewManager("test-secret").Parse(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleGuide, claims.Role)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Login(context.Background(), "nobody@example.com", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestApprovedPagination(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		app := &Application{
			Name:   "Guide",
			Email:  string(rune('a'+i)) + "@example.com",
			Status: StatusApproved,
		}
		_, err := repo.Create(ctx, app)
		require.NoError(t, err)
		app.Status = StatusApproved
	}

	guides, pagination, err := svc.Approved(ctx, ApprovedFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, guides, 10)
	assert.Equal(t, 12, pagination.Total)
	assert.Equal(t, 2, pagination.TotalPages)
	assert.True(t, pagination.HasNext)
	assert.False(t, pagination.HasPrev)

	guides, pagination, err = svc.Approved(ctx, ApprovedFilter{Page: 2, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, guides, 2)
	assert.False(t, pagination.HasNext)
	assert.True(t, pagination.HasPrev)
}

func TestApprovedDefaults(t *testing.T) {
	svc, _, _ := newTestService()

	_, pagination, err := svc.Approved(context.Background(), ApprovedFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, pagination.CurrentPage)
}
