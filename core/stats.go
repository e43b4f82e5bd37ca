package core

import "context"

type (
	// StudentStats feeds the student dashboard.
	StudentStats struct {
		EnrolledCourses  int     `json:"enrolled_courses"`
		CompletedLessons int     `json:"completed_lessons"`
		HoursLearned     float64 `json:"hours_learned"`
	}

	// TutorStats feeds the tutor/admin dashboard.
	TutorStats struct {
		PublishedCourses int     `json:"published_courses"`
		TotalStudents    int     `json:"total_students"`
		AverageRating    float64 `json:"average_rating"`
	}

	// StatsService is any service that can compute dashboard statistics.
	// There is no real analytics pipeline yet; see services/stats for the
	// stub implementation used in the meantime.
	StatsService interface {
		StudentStats(ctx context.Context, userID string) (StudentStats, error)
		TutorStats(ctx context.Context, userID string) (TutorStats, error)
	}
)
