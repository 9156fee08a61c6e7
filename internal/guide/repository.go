package guide

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrNotFound = errors.New("guide not found")

const selectColumns = `id, name, email, phone, password, experience, languages,
	destinations, bio, hourly_rate, profile_image, status, admin_notes,
	reviewed_by, reviewed_at, is_active, rating, total_reviews,
	tours_completed, verification_otp, otp_expires_at, email_verified, created_at`

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, app *Application) (*Application, error) {
	query := `
		INSERT INTO guide_applications
			(name, email, phone, password, experience, languages, destinations,
			 bio, hourly_rate, profile_image, verification_otp, otp_expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		app.Name, app.Email, app.Phone, app.Password, app.Experience,
		joinList(app.Languages), joinList(app.Destinations),
		app.Bio, app.HourlyRate, app.ProfileImage, app.OTP, app.OTPExpiresAt,
	).Scan(&app.ID, &app.CreatedAt)
	if err != nil {
		return nil, err
	}

	app.Status = StatusPending
	app.IsActive = true
	return app, nil
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*Application, error) {
	query := "SELECT " + selectColumns + " FROM guide_applications WHERE email = $1"
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r *Repository) GetByID(ctx context.Context, id int) (*Application, error) {
	query := "SELECT " + selectColumns + " FROM guide_applications WHERE id = $1"
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *Repository) UpdateOTP(ctx context.Context, id int, otp string, expiresAt time.Time) error {
	query := `UPDATE guide_applications
		SET verification_otp = $2, otp_expires_at = $3, updated_at = now()
		WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, otp, expiresAt)
	return err
}

func (r *Repository) MarkVerified(ctx context.Context, id int) error {
	query := `UPDATE guide_applications
		SET email_verified = TRUE, verification_otp = '', otp_expires_at = NULL,
		    updated_at = now()
		WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// UpdateStatus moves a pending application to approved or rejected. The
// WHERE clause guards the pending-only transition so two concurrent
// reviews cannot both succeed.
func (r *Repository) UpdateStatus(ctx context.Context, id int, status, notes string, reviewedBy int) error {
	query := `UPDATE guide_applications
		SET status = $2, admin_notes = $3, reviewed_by = $4, reviewed_at = now(),
		    updated_at = now()
		WHERE id = $1 AND status = 'pending'`

	res, err := r.db.ExecContext(ctx, query, id, status, notes, reviewedBy)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadyProcessed
	}
	return nil
}

func (r *Repository) SetActive(ctx context.Context, id int, active bool) error {
	query := `UPDATE guide_applications SET is_active = $2, updated_at = now() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, active)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type ApprovedFilter struct {
	Destination string
	Language    string
	Page        int
	Limit       int
}

func (r *Repository) ListApproved(ctx context.Context, f ApprovedFilter) ([]*Application, int, error) {
	where := []string{"status = 'approved'", "is_active = TRUE"}
	args := []any{}

	if f.Destination != "" {
		args = append(args, "%"+f.Destination+"%")
		where = append(where, fmt.Sprintf("destinations ILIKE $%d", len(args)))
	}
	if f.Language != "" {
		args = append(args, "%"+f.Language+"%")
		where = append(where, fmt.Sprintf("languages ILIKE $%d", len(args)))
	}

	clause := strings.Join(where, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM guide_applications WHERE " + clause
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	query := fmt.Sprintf(
		"SELECT "+selectColumns+" FROM guide_applications WHERE %s ORDER BY rating DESC, tours_completed DESC LIMIT $%d OFFSET $%d",
		clause, len(args)-1, len(args),
	)

	apps, err := r.scanMany(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return apps, total, nil
}

func (r *Repository) List(ctx context.Context, status string, page, limit int) ([]*Application, int, error) {
	where := "TRUE"
	args := []any{}
	if status != "" && status != "all" {
		args = append(args, status)
		where = "status = $1"
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM guide_applications WHERE " + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, (page-1)*limit)
	query := fmt.Sprintf(
		"SELECT "+selectColumns+" FROM guide_applications WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		where, len(args)-1, len(args),
	)

	apps, err := r.scanMany(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return apps, total, nil
}

func (r *Repository) CountByStatus(ctx context.Context, status string) (int, error) {
	var n int
	query := "SELECT COUNT(*) FROM guide_applications"
	args := []any{}
	if status != "" {
		query += " WHERE status = $1"
		args = append(args, status)
	}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

func (r *Repository) CountSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	query := "SELECT COUNT(*) FROM guide_applications WHERE created_at >= $1"
	err := r.db.QueryRowContext(ctx, query, since).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scanOne(row rowScanner) (*Application, error) {
	app := &Application{}
	var languages, destinations string

	err := row.Scan(
		&app.ID, &app.Name, &app.Email, &app.Phone, &app.Password,
		&app.Experience, &languages, &destinations, &app.Bio,
		&app.HourlyRate, &app.ProfileImage, &app.Status, &app.AdminNotes,
		&app.ReviewedBy, &app.ReviewedAt, &app.IsActive, &app.Rating,
		&app.TotalReviews, &app.ToursCompleted, &app.OTP, &app.OTPExpiresAt,
		&app.EmailVerified, &app.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	app.Languages = splitList(languages)
	app.Destinations = splitList(destinations)
	return app, nil
}

func (r *Repository) scanMany(ctx context.Context, query string, args ...any) ([]*Application, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apps []*Application
	for rows.Next() {
		app, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

// Languages and destinations are stored comma-joined in a single column;
// ILIKE filters work against the joined value.
func joinList(items []string) string {
	return strings.Join(items, ",")
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
