package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/JFernandezWeb/LumenLMS/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint64) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint64) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
}

// BlogRepository defines the interface for blog post live-row operations
type BlogRepository interface {
	Create(post *models.BlogPost) error
	GetByID(id uint64) (*models.BlogPost, error)
	GetBySlug(slug string) (*models.BlogPost, error)
	GetVisible(now time.Time, offset, limit int) ([]models.BlogPost, error)
	GetAll(offset, limit int) ([]models.BlogPost, error)
	UpdateFields(id uint64, fields map[string]interface{}) error
	Delete(id uint64) error
	SlugExists(slug string) (bool, error)
	SlugExistsExceptID(slug string, id uint64) (bool, error)
	IncrementViews(id uint64) error
	Count() (int64, error)
}

// CourseRepository defines the interface for course and lesson operations
type CourseRepository interface {
	Create(course *models.Course) error
	GetByID(id uint64) (*models.Course, error)
	GetPublished(offset, limit int) ([]models.Course, error)
	GetAll(offset, limit int) ([]models.Course, error)
	Update(course *models.Course) error
	Delete(id uint64) error
	CreateLesson(lesson *models.Lesson) error
	GetLessonByID(id uint64) (*models.Lesson, error)
	GetLessonsByCourse(courseID uint64) ([]models.Lesson, error)
	CountLessons(courseID uint64) (int64, error)
}

// StoryRepository defines the interface for story submission operations
type StoryRepository interface {
	Create(story *models.Story) error
	GetByID(id uint64) (*models.Story, error)
	GetByFileHash(hash string) (*models.Story, error)
	GetByStatus(status string, offset, limit int) ([]models.Story, error)
	UpdateStatus(id uint64, status, moderationNotes string) error
	Delete(id uint64) error
	Count() (int64, error)
}

// ProgressRepository defines the interface for student progress operations
type ProgressRepository interface {
	Upsert(progress *models.StudentProgress) error
	GetByUserLesson(userID, lessonID uint64) (*models.StudentProgress, error)
	ListByUserCourse(userID, courseID uint64) ([]models.StudentProgress, error)
	CountCompleted(userID, courseID uint64) (int64, error)
}

// QuizRepository defines the interface for quiz lookups and attempt writes
type QuizRepository interface {
	GetQuizByID(id uint64) (*models.Quiz, error)
	GetQuestions(quizID uint64) ([]models.QuizQuestion, error)
	GetOptionsByQuiz(quizID uint64) ([]models.QuizOption, error)
	CountAttempts(quizID, userID uint64) (int64, error)
	CreateAttempt(attempt *models.QuizAttempt) error
	CreateAnswers(answers []models.QuizAnswer) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	User     UserRepository
	Blog     BlogRepository
	Course   CourseRepository
	Story    StoryRepository
	Progress ProgressRepository
	Quiz     QuizRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:     NewUserRepository(db),
		Blog:     NewBlogRepository(db),
		Course:   NewCourseRepository(db),
		Story:    NewStoryRepository(db),
		Progress: NewProgressRepository(db),
		Quiz:     NewQuizRepository(db),
	}
}
