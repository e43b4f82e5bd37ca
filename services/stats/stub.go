package statsvc

import (
	"context"

	"github.com/trezcool/tutorhub/core"
	"github.com/trezcool/tutorhub/core/course"
)

// stubService stands in until a real analytics pipeline exists. Course
// counts are real; enrollment, lesson and rating figures stay at zero so
// they are not mistaken for business data.
type stubService struct {
	courses course.Repository
}

var _ core.StatsService = (*stubService)(nil)

func NewStubService(courses course.Repository) *stubService {
	return &stubService{courses: courses}
}

func (svc stubService) StudentStats(ctx context.Context, userID string) (core.StudentStats, error) {
	return core.StudentStats{}, nil
}

func (svc stubService) TutorStats(ctx context.Context, userID string) (core.TutorStats, error) {
	owned, err := svc.courses.QueryCourses(ctx, course.Filter{OwnerID: userID})
	if err != nil {
		return core.TutorStats{}, err
	}
	return core.TutorStats{PublishedCourses: len(owned)}, nil
}
