package progress

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/JFernandezWeb/LumenLMS/app/models"
	"github.com/JFernandezWeb/LumenLMS/app/repository"
	"github.com/JFernandezWeb/LumenLMS/internal/pkg/certificates"
)

var ErrLessonNotFound = errors.New("lesson not found")

// CertificateIssuer is the slice of the certificate service the
// completion hook needs.
type CertificateIssuer interface {
	Issue(ctx context.Context, userID, courseID uint64) (*models.Certificate, error)
}

// Input is one progress save from the lesson player.
type Input struct {
	Completed          bool
	ProgressPercentage int
	TimeSpent          int
	LastPosition       int
	Notes              string
}

// Summary aggregates a user's standing in one course.
type Summary struct {
	CourseID         uint64  `json:"course_id"`
	CompletedLessons int64   `json:"completed_lessons"`
	TotalLessons     int64   `json:"total_lessons"`
	Percent          float64 `json:"percent"`
	CourseCompleted  bool    `json:"course_completed"`
}

// Service records lesson progress and promotes full completion into a
// certificate.
type Service struct {
	progress repository.ProgressRepository
	courses  repository.CourseRepository
	certs    CertificateIssuer
	now      func() time.Time
}

func NewService(progress repository.ProgressRepository, courses repository.CourseRepository, certs CertificateIssuer) *Service {
	return &Service{progress: progress, courses: courses, certs: certs, now: time.Now}
}

// SaveLessonProgress upserts the user's progress row for a lesson.
// When the save completes the last outstanding lesson of the course,
// a certificate issue is attempted; issuance failures are logged, not
// surfaced, since the progress write already succeeded.
func (s *Service) SaveLessonProgress(ctx context.Context, userID, lessonID uint64, input Input) (*models.StudentProgress, *Summary, error) {
	lesson, err := s.courses.GetLessonByID(lessonID)
	if err != nil {
		return nil, nil, err
	}
	if lesson == nil {
		return nil, nil, ErrLessonNotFound
	}

	row := &models.StudentProgress{
		UserID:             userID,
		LessonID:           lessonID,
		CourseID:           lesson.CourseID,
		Completed:          input.Completed,
		ProgressPercentage: input.ProgressPercentage,
		TimeSpent:          input.TimeSpent,
		LastPosition:       input.LastPosition,
		Notes:              input.Notes,
	}
	if input.Completed {
		now := s.now()
		row.CompletedAt = &now
	}
	if err := s.progress.Upsert(row); err != nil {
		return nil, nil, err
	}

	summary, err := s.CourseSummary(ctx, userID, lesson.CourseID)
	if err != nil {
		return nil, nil, err
	}

	if summary.CourseCompleted && s.certs != nil {
		if _, err := s.certs.Issue(ctx, userID, lesson.CourseID); err != nil &&
			!errors.Is(err, certificates.ErrEnrollmentNotEligible) {
			log.Errorf("[Progress] certificate issue for user %d course %d: %v", userID, lesson.CourseID, err)
		}
	}
	return row, summary, nil
}

// CourseSummary reports the user's completion standing for a course.
func (s *Service) CourseSummary(ctx context.Context, userID, courseID uint64) (*Summary, error) {
	_ = ctx
	total, err := s.courses.CountLessons(courseID)
	if err != nil {
		return nil, err
	}
	completed, err := s.progress.CountCompleted(userID, courseID)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		CourseID:         courseID,
		CompletedLessons: completed,
		TotalLessons:     total,
	}
	if total > 0 {
		summary.Percent = float64(completed) / float64(total) * 100
		summary.CourseCompleted = completed >= total
	}
	return summary, nil
}
