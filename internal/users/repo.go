package users

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/blogsvc/internal/apperr"
	"github.com/2beens/blogsvc/internal/telemetry/tracing"
	"github.com/2beens/blogsvc/pkg"
)

const userColumns = `id, username, email, name, password_hash, avatar, profile_image, description, created_at`

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.Name, &u.PasswordHash,
		&u.Avatar, &u.ProfileImage, &u.Description, &u.CreatedAt,
	); err != nil {
		if pkg.IsNoRowsError(err) {
			return nil, apperr.WithMessage(apperr.ErrNotFound, "User not found")
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repo) Add(ctx context.Context, user *User) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.add")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	user.Email = NormalizeEmail(user.Email)

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`,
		user.ID, user.Username, user.Email, user.Name, user.PasswordHash,
		user.Avatar, user.ProfileImage, user.Description, user.CreatedAt,
	)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return fmt.Errorf("add user: %w", apperr.ErrConflict)
		}
		return fmt.Errorf("add user: %w", err)
	}

	return nil
}

func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.get_by_id")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.String("user.id", id.String()))

	return scanUser(r.db.QueryRow(
		ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1;`,
		id,
	))
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.get_by_email")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	return scanUser(r.db.QueryRow(
		ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1;`,
		NormalizeEmail(email),
	))
}

func (r *Repo) UpdateAvatar(ctx context.Context, id uuid.UUID, avatar string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.update_avatar")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	tag, err := r.db.Exec(ctx, `UPDATE users SET avatar = $1 WHERE id = $2;`, avatar, id)
	if err != nil {
		return fmt.Errorf("update avatar: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.WithMessage(apperr.ErrNotFound, "User not found")
	}
	return nil
}

// UpdateProfile sets name and description and returns the updated user.
func (r *Repo) UpdateProfile(ctx context.Context, id uuid.UUID, name, description string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.update_profile")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	return scanUser(r.db.QueryRow(
		ctx,
		`UPDATE users SET name = $1, description = $2 WHERE id = $3 RETURNING `+userColumns+`;`,
		strings.TrimSpace(name), strings.TrimSpace(description), id,
	))
}

func (r *Repo) UpdateProfileImage(ctx context.Context, id uuid.UUID, profileImage string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.update_profile_image")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	return scanUser(r.db.QueryRow(
		ctx,
		`UPDATE users SET profile_image = $1 WHERE id = $2 RETURNING `+userColumns+`;`,
		profileImage, id,
	))
}

func (r *Repo) Count(ctx context.Context) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.count")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users;`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}
