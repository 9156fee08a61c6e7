package admin

import (
	"context"
	"database/sql"
	"errors"
)

var ErrNotFound = errors.New("admin not found")

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetActiveByEmail(ctx context.Context, email string) (*Admin, error) {
	a := &Admin{}
	query := `SELECT id, name, email, password, role, is_active, last_login, created_at
		FROM admins WHERE email = $1 AND is_active = TRUE`

	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&a.ID, &a.Name, &a.Email, &a.Password, &a.Role,
		&a.IsActive, &a.LastLogin, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return a, nil
}

func (r *Repository) UpdateLastLogin(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx, "UPDATE admins SET last_login = now() WHERE id = $1", id)
	return err
}

// EnsureSeed creates the initial admin account if no admin with the given
// email exists yet.
func (r *Repository) EnsureSeed(ctx context.Context, name, email, hashedPassword string) error {
	query := `INSERT INTO admins (name, email, password, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, name, email, hashedPassword, RoleSuperAdmin)
	return err
}
