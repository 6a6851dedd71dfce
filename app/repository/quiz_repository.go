package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/JFernandezWeb/LumenLMS/app/models"
)

// quizRepository implements the QuizRepository interface
type quizRepository struct {
	db *gorm.DB
}

// NewQuizRepository creates a new quiz repository instance
func NewQuizRepository(db *gorm.DB) QuizRepository {
	return &quizRepository{db: db}
}

func (r *quizRepository) GetQuizByID(id uint64) (*models.Quiz, error) {
	var quiz models.Quiz
	err := r.db.First(&quiz, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *quizRepository) GetQuestions(quizID uint64) ([]models.QuizQuestion, error) {
	var questions []models.QuizQuestion
	err := r.db.Where("quiz_id = ?", quizID).Order("order_index ASC, id ASC").Find(&questions).Error
	return questions, err
}

// GetOptionsByQuiz loads every option of a quiz in one query; the
// caller groups them by question.
func (r *quizRepository) GetOptionsByQuiz(quizID uint64) ([]models.QuizOption, error) {
	var options []models.QuizOption
	err := r.db.
		Joins("JOIN quiz_questions ON quiz_questions.id = quiz_options.question_id").
		Where("quiz_questions.quiz_id = ?", quizID).
		Order("quiz_options.order_index ASC, quiz_options.id ASC").
		Find(&options).Error
	return options, err
}

func (r *quizRepository) CountAttempts(quizID, userID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.QuizAttempt{}).
		Where("quiz_id = ? AND user_id = ?", quizID, userID).Count(&count).Error
	return count, err
}

func (r *quizRepository) CreateAttempt(attempt *models.QuizAttempt) error {
	return r.db.Create(attempt).Error
}

func (r *quizRepository) CreateAnswers(answers []models.QuizAnswer) error {
	if len(answers) == 0 {
		return nil
	}
	return r.db.Create(&answers).Error
}
