package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/tutorhub/core"
	"github.com/trezcool/tutorhub/core/profile"
)

// most recently updated first
var profileOrdering = core.DBOrdering{Field: "updated_at"}

type profileRepository struct {
	db *sqlx.DB
}

var _ profile.Repository = (*profileRepository)(nil)

func NewProfileRepository(db *sqlx.DB) *profileRepository {
	return &profileRepository{db: db}
}

func (repo profileRepository) GetProfile(ctx context.Context, userID string) (profile.Profile, error) {
	const q = `SELECT id, full_name, avatar_url, role, bio, updated_at FROM profile WHERE id = $1`

	var p profile.Profile
	if err := repo.db.GetContext(ctx, &p, q, userID); err != nil {
		if err == sql.ErrNoRows {
			return profile.Profile{}, profile.ErrNotFound
		}
		return profile.Profile{}, errors.Wrap(err, "selecting profile")
	}
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

func (repo profileRepository) UpsertProfile(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	p.UpdatedAt = time.Now().UTC()

	const q = `
		INSERT INTO profile (id, full_name, avatar_url, role, bio, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET full_name = EXCLUDED.full_name,
			avatar_url = EXCLUDED.avatar_url,
			role = EXCLUDED.role,
			bio = EXCLUDED.bio,
			updated_at = EXCLUDED.updated_at`
	if _, err := repo.db.ExecContext(ctx, q, p.ID, p.FullName, p.AvatarURL, p.Role, p.Bio, p.UpdatedAt); err != nil {
		return profile.Profile{}, errors.Wrap(err, "upserting profile")
	}
	return p, nil
}

func (repo profileRepository) QueryAllProfiles(ctx context.Context) ([]profile.Profile, error) {
	q := `SELECT id, full_name, avatar_url, role, bio, updated_at FROM profile ORDER BY ` + profileOrdering.String()

	var profs []profile.Profile
	if err := repo.db.SelectContext(ctx, &profs, q); err != nil {
		return nil, errors.Wrap(err, "selecting profiles")
	}
	for i := range profs {
		profs[i].UpdatedAt = profs[i].UpdatedAt.UTC()
	}
	return profs, nil
}
