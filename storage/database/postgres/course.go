package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/tutorhub/core"
	"github.com/trezcool/tutorhub/core/course"
)

// newest first
var courseOrdering = core.DBOrdering{Field: "c.created_at"}

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *sqlx.DB) *courseRepository {
	return &courseRepository{db: db}
}

type courseRow struct {
	ID          string          `db:"id"`
	Title       string          `db:"title"`
	Description string          `db:"description"`
	ImageURL    string          `db:"image_url"`
	Duration    string          `db:"duration"`
	Topics      json.RawMessage `db:"topics"`
	UserID      string          `db:"user_id"`
	CreatedAt   time.Time       `db:"created_at"`

	OwnerName   sql.NullString `db:"owner_name"`
	OwnerAvatar sql.NullString `db:"owner_avatar"`
}

func (r courseRow) course() (course.Course, error) {
	crs := course.Course{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		ImageURL:    r.ImageURL,
		Duration:    r.Duration,
		UserID:      r.UserID,
		CreatedAt:   r.CreatedAt.UTC(),
	}
	if len(r.Topics) > 0 {
		if err := json.Unmarshal(r.Topics, &crs.Topics); err != nil {
			return course.Course{}, errors.Wrap(err, "decoding topics")
		}
	}
	if r.OwnerName.Valid || r.OwnerAvatar.Valid {
		crs.Owner = &course.OwnerInfo{
			FullName:  r.OwnerName.String,
			AvatarURL: r.OwnerAvatar.String,
		}
	}
	return crs, nil
}

const courseSelect = `
	SELECT c.id, c.title, COALESCE(c.description, '') AS description,
		COALESCE(c.image_url, '') AS image_url, COALESCE(c.duration, '') AS duration,
		c.topics, c.user_id, c.created_at,
		p.full_name AS owner_name, p.avatar_url AS owner_avatar
	FROM course c
	LEFT JOIN profile p ON p.id = c.user_id`

func (repo courseRepository) QueryCourses(ctx context.Context, filter course.Filter) ([]course.Course, error) {
	q := courseSelect
	args := make([]interface{}, 0, 1)
	if filter.OwnerID != "" {
		q += ` WHERE c.user_id = $1`
		args = append(args, filter.OwnerID)
	}
	q += ` ORDER BY ` + courseOrdering.String()

	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting courses")
	}
	courses := make([]course.Course, len(rows))
	for i, row := range rows {
		crs, err := row.course()
		if err != nil {
			return nil, err
		}
		courses[i] = crs
	}
	return courses, nil
}

func (repo courseRepository) GetCourse(ctx context.Context, id string) (course.Course, error) {
	q := courseSelect + ` WHERE c.id = $1`

	var row courseRow
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "selecting course")
	}
	return row.course()
}

func (repo courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	crs.ID = uuid.New().String()
	crs.CreatedAt = time.Now().UTC()
	if crs.Topics == nil {
		crs.Topics = []course.Topic{}
	}

	topics, err := json.Marshal(crs.Topics)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "encoding topics")
	}

	const q = `
		INSERT INTO course (id, title, description, image_url, duration, topics, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err = repo.db.ExecContext(ctx, q,
		crs.ID, crs.Title, crs.Description, crs.ImageURL, crs.Duration, topics, crs.UserID, crs.CreatedAt,
	); err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return crs, nil
}

func (repo courseRepository) UpdateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	topics, err := json.Marshal(crs.Topics)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "encoding topics")
	}

	const q = `
		UPDATE course
		SET title = $2, description = $3, image_url = $4, duration = $5, topics = $6
		WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q, crs.ID, crs.Title, crs.Description, crs.ImageURL, crs.Duration, topics)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return crs, nil
}

func (repo courseRepository) DeleteCourse(ctx context.Context, id string) error {
	const q = `DELETE FROM course WHERE id = $1`

	res, err := repo.db.ExecContext(ctx, q, id)
	if err != nil {
		return errors.Wrap(err, "deleting course")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.ErrNotFound
	}
	return nil
}
