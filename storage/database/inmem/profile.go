package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/tutorhub/core/profile"
)

type profileRepository struct {
	db *profileTable
}

var _ profile.Repository = (*profileRepository)(nil)

func NewProfileRepository(db *DB) *profileRepository {
	return &profileRepository{db: db.profile}
}

func (repo *profileRepository) GetProfile(ctx context.Context, userID string) (profile.Profile, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if p, ok := repo.db.table[userID]; ok {
		return *p, nil
	}
	return profile.Profile{}, profile.ErrNotFound
}

func (repo *profileRepository) UpsertProfile(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	p.UpdatedAt = time.Now().UTC()
	repo.db.table[p.ID] = &p
	return p, nil
}

func (repo *profileRepository) QueryAllProfiles(ctx context.Context) ([]profile.Profile, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	profs := make([]profile.Profile, 0, len(repo.db.table))
	for _, p := range repo.db.table {
		profs = append(profs, *p)
	}
	sort.Slice(profs, func(i, j int) bool { return profs[i].UpdatedAt.After(profs[j].UpdatedAt) })
	return profs, nil
}
