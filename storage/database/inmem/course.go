package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/tutorhub/core/course"
)

// courseRepository also holds the profile table to join owner info at
// read time, like the SQL layer does.
type courseRepository struct {
	db       *courseTable
	profiles *profileTable
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db.course, profiles: db.profile}
}

func (repo *courseRepository) withOwner(crs course.Course) course.Course {
	repo.profiles.mutex.RLock()
	defer repo.profiles.mutex.RUnlock()

	if p, ok := repo.profiles.table[crs.UserID]; ok {
		crs.Owner = &course.OwnerInfo{FullName: p.FullName, AvatarURL: p.AvatarURL}
	}
	return crs
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter course.Filter) ([]course.Course, error) {
	repo.db.mutex.RLock()
	courses := make([]course.Course, 0, len(repo.db.table))
	for _, crs := range repo.db.table {
		if filter.OwnerID != "" && crs.UserID != filter.OwnerID {
			continue
		}
		courses = append(courses, *crs)
	}
	repo.db.mutex.RUnlock()

	sort.Slice(courses, func(i, j int) bool { return courses[i].CreatedAt.After(courses[j].CreatedAt) })
	for i := range courses {
		courses[i] = repo.withOwner(courses[i])
	}
	return courses, nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, id string) (course.Course, error) {
	repo.db.mutex.RLock()
	crs, ok := repo.db.table[id]
	repo.db.mutex.RUnlock()

	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	return repo.withOwner(*crs), nil
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	crs.ID = uuid.New().String()
	crs.CreatedAt = time.Now().UTC()
	if crs.Topics == nil {
		crs.Topics = []course.Topic{}
	}
	repo.db.table[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.table[crs.ID]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	orig.Title = crs.Title
	orig.Description = crs.Description
	orig.ImageURL = crs.ImageURL
	orig.Duration = crs.Duration
	orig.Topics = crs.Topics
	return *orig, nil
}

func (repo *courseRepository) DeleteCourse(ctx context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return course.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}
