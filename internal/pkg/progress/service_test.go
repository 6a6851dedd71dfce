package progress

import (
	"context"
	"errors"
	"testing"

	"github.com/JFernandezWeb/LumenLMS/app/models"
)

type fakeProgressRepo struct {
	rows map[uint64]*models.StudentProgress // keyed by lesson id for one user
}

func newFakeProgressRepo() *fakeProgressRepo {
	return &fakeProgressRepo{rows: make(map[uint64]*models.StudentProgress)}
}

func (f *fakeProgressRepo) Upsert(p *models.StudentProgress) error {
	if existing, ok := f.rows[p.LessonID]; ok {
		p.ID = existing.ID
	} else {
		p.ID = uint64(len(f.rows) + 1)
	}
	copied := *p
	f.rows[p.LessonID] = &copied
	return nil
}

func (f *fakeProgressRepo) GetByUserLesson(userID, lessonID uint64) (*models.StudentProgress, error) {
	if row, ok := f.rows[lessonID]; ok {
		copied := *row
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeProgressRepo) ListByUserCourse(userID, courseID uint64) ([]models.StudentProgress, error) {
	var out []models.StudentProgress
	for _, row := range f.rows {
		if row.CourseID == courseID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (f *fakeProgressRepo) CountCompleted(userID, courseID uint64) (int64, error) {
	var n int64
	for _, row := range f.rows {
		if row.CourseID == courseID && row.Completed {
			n++
		}
	}
	return n, nil
}

type fakeCourseRepo struct {
	lessons map[uint64]*models.Lesson
	total   int64
}

func (f *fakeCourseRepo) Create(*models.Course) error                       { return nil }
func (f *fakeCourseRepo) GetByID(uint64) (*models.Course, error)            { return nil, nil }
func (f *fakeCourseRepo) GetPublished(int, int) ([]models.Course, error)    { return nil, nil }
func (f *fakeCourseRepo) GetAll(int, int) ([]models.Course, error)          { return nil, nil }
func (f *fakeCourseRepo) Update(*models.Course) error                       { return nil }
func (f *fakeCourseRepo) Delete(uint64) error                               { return nil }
func (f *fakeCourseRepo) CreateLesson(*models.Lesson) error                 { return nil }
func (f *fakeCourseRepo) GetLessonsByCourse(uint64) ([]models.Lesson, error) { return nil, nil }

func (f *fakeCourseRepo) GetLessonByID(id uint64) (*models.Lesson, error) {
	if lesson, ok := f.lessons[id]; ok {
		return lesson, nil
	}
	return nil, nil
}

func (f *fakeCourseRepo) CountLessons(courseID uint64) (int64, error) {
	return f.total, nil
}

type fakeIssuer struct {
	calls int
}

func (f *fakeIssuer) Issue(ctx context.Context, userID, courseID uint64) (*models.Certificate, error) {
	f.calls++
	return &models.Certificate{UserID: userID, CourseID: courseID}, nil
}

func twoLessonCourse() *fakeCourseRepo {
	return &fakeCourseRepo{
		lessons: map[uint64]*models.Lesson{
			100: {ID: 100, CourseID: 5},
			101: {ID: 101, CourseID: 5},
		},
		total: 2,
	}
}

func TestSaveLessonProgressUpserts(t *testing.T) {
	repo := newFakeProgressRepo()
	svc := NewService(repo, twoLessonCourse(), nil)
	ctx := context.Background()

	_, summary, err := svc.SaveLessonProgress(ctx, 7, 100, Input{ProgressPercentage: 40, LastPosition: 120})
	if err != nil {
		t.Fatalf("first save: %v", err)
	}
	if summary.CompletedLessons != 0 || summary.CourseCompleted {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	row, _, err := svc.SaveLessonProgress(ctx, 7, 100, Input{Completed: true, ProgressPercentage: 100})
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	if row.CompletedAt == nil {
		t.Fatal("completion must stamp completed_at")
	}
	if len(repo.rows) != 1 {
		t.Fatalf("expected one row after two saves of the same lesson, got %d", len(repo.rows))
	}
}

func TestSaveLessonProgressUnknownLesson(t *testing.T) {
	svc := NewService(newFakeProgressRepo(), twoLessonCourse(), nil)
	_, _, err := svc.SaveLessonProgress(context.Background(), 7, 999, Input{})
	if !errors.Is(err, ErrLessonNotFound) {
		t.Fatalf("expected ErrLessonNotFound, got %v", err)
	}
}

func TestCompletionTriggersCertificate(t *testing.T) {
	repo := newFakeProgressRepo()
	issuer := &fakeIssuer{}
	svc := NewService(repo, twoLessonCourse(), issuer)
	ctx := context.Background()

	if _, _, err := svc.SaveLessonProgress(ctx, 7, 100, Input{Completed: true}); err != nil {
		t.Fatalf("lesson 100: %v", err)
	}
	if issuer.calls != 0 {
		t.Fatal("certificate issued before the course was complete")
	}

	_, summary, err := svc.SaveLessonProgress(ctx, 7, 101, Input{Completed: true})
	if err != nil {
		t.Fatalf("lesson 101: %v", err)
	}
	if !summary.CourseCompleted || summary.Percent != 100 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if issuer.calls != 1 {
		t.Fatalf("expected one certificate issue, got %d", issuer.calls)
	}
}

func TestCourseSummaryEmptyCourse(t *testing.T) {
	svc := NewService(newFakeProgressRepo(), &fakeCourseRepo{total: 0}, nil)
	summary, err := svc.CourseSummary(context.Background(), 7, 5)
	if err != nil {
		t.Fatalf("CourseSummary: %v", err)
	}
	if summary.CourseCompleted || summary.Percent != 0 {
		t.Fatalf("course with no lessons must not count as completed: %+v", summary)
	}
}
