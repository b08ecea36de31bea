package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khoahotran/folio/internal/domain/profile"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

type postgresProfileRepo struct {
	db     *pgxpool.Pool
	logger logger.Logger
}

func NewPostgresProfileRepo(db *pgxpool.Pool, logger logger.Logger) profile.Repository {
	return &postgresProfileRepo{db: db, logger: logger}
}

const profileColumns = `user_id, username, name, custom_title, custom_subtext, avatar_url, created_at, updated_at`

func scanProfile(row pgx.Row, identifier string) (*profile.Profile, error) {
	p := &profile.Profile{}
	err := row.Scan(
		&p.UserID,
		&p.Username,
		&p.Name,
		&p.CustomTitle,
		&p.CustomSubtext,
		&p.AvatarURL,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("profile", identifier)
		}
		return nil, apperror.NewInternal("failed to query profile", err)
	}
	return p, nil
}

func (r *postgresProfileRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*profile.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`
	return scanProfile(r.db.QueryRow(ctx, query, userID), userID.String())
}

func (r *postgresProfileRepo) GetByUsername(ctx context.Context, username string) (*profile.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE username = $1`
	return scanProfile(r.db.QueryRow(ctx, query, username), username)
}

func (r *postgresProfileRepo) UsernameTakenByOther(ctx context.Context, username string, userID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM profiles WHERE username = $1 AND user_id <> $2)`
	var taken bool
	if err := r.db.QueryRow(ctx, query, username, userID).Scan(&taken); err != nil {
		return false, apperror.NewInternal("failed to check username", err)
	}
	return taken, nil
}

func (r *postgresProfileRepo) Upsert(ctx context.Context, p *profile.Profile) error {
	query := `
		INSERT INTO profiles (user_id, username, name, custom_title, custom_subtext, avatar_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			username = EXCLUDED.username,
			name = EXCLUDED.name,
			custom_title = EXCLUDED.custom_title,
			custom_subtext = EXCLUDED.custom_subtext,
			avatar_url = EXCLUDED.avatar_url,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		p.UserID,
		p.Username,
		p.Name,
		p.CustomTitle,
		p.CustomSubtext,
		p.AvatarURL,
		p.CreatedAt,
		p.UpdatedAt,
	).Scan(&p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		// lost a race with another user's check-then-save
		if isUniqueViolation(err) {
			return apperror.NewInvalidInput("Username is already taken", profile.ErrUsernameTaken)
		}
		return apperror.NewInternal("failed to upsert profile", err)
	}
	return nil
}

func (r *postgresProfileRepo) Delete(ctx context.Context, userID uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM profiles WHERE user_id = $1`, userID)
	if err != nil {
		return apperror.NewInternal("failed to delete profile", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperror.NewNotFound("profile", userID.String())
	}
	return nil
}
