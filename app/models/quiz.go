package models

import "time"

// Question kinds supported by the quiz player.
const (
	QuestionTypeSingleChoice   = "single_choice"
	QuestionTypeMultipleSelect = "multiple_select"
	QuestionTypeTrueFalse      = "true_false"
)

type Quiz struct {
	ID                 uint64    `gorm:"primaryKey" json:"id"`
	CourseID           uint64    `gorm:"not null;index" json:"course_id"`
	Title              string    `gorm:"type:varchar(255);not null" json:"title" validate:"required,min=1,max=255"`
	Description        string    `gorm:"type:text" json:"description"`
	TimeLimit          int       `gorm:"default:0" json:"time_limit"`
	PassingScore       float64   `gorm:"type:decimal(5,2);default:70" json:"passing_score"`
	MaxAttempts        int       `gorm:"default:0" json:"max_attempts"`
	RandomizeQuestions bool      `gorm:"type:tinyint(1);default:0" json:"randomize_questions"`
	RandomizeOptions   bool      `gorm:"type:tinyint(1);default:0" json:"randomize_options"`
	ShowCorrectAnswers bool      `gorm:"type:tinyint(1);default:1" json:"show_correct_answers"`
	Published          bool      `gorm:"type:tinyint(1);default:0;index" json:"published"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

type QuizQuestion struct {
	ID           uint64 `gorm:"primaryKey" json:"id"`
	QuizID       uint64 `gorm:"not null;index" json:"quiz_id"`
	QuestionText string `gorm:"type:text;not null" json:"question_text"`
	QuestionType string `gorm:"type:varchar(20);not null;default:'single_choice'" json:"question_type"`
	Points       int    `gorm:"default:1" json:"points"`
	Explanation  string `gorm:"type:text" json:"explanation"`
	OrderIndex   int    `gorm:"default:0;index" json:"order_index"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}

type QuizOption struct {
	ID         uint64 `gorm:"primaryKey" json:"id"`
	QuestionID uint64 `gorm:"not null;index" json:"question_id"`
	OptionText string `gorm:"type:text;not null" json:"option_text"`
	IsCorrect  bool   `gorm:"type:tinyint(1);default:0" json:"is_correct"`
	OrderIndex int    `gorm:"default:0" json:"order_index"`
}

func (QuizOption) TableName() string {
	return "quiz_options"
}

type QuizAttempt struct {
	ID           uint64    `gorm:"primaryKey" json:"id"`
	QuizID       uint64    `gorm:"not null;index:idx_quiz_attempts_quiz_user,priority:1" json:"quiz_id"`
	UserID       uint64    `gorm:"not null;index:idx_quiz_attempts_quiz_user,priority:2" json:"user_id"`
	CourseID     uint64    `gorm:"not null;index" json:"course_id"`
	Score        float64   `gorm:"type:decimal(5,2);not null" json:"score"`
	PointsEarned int       `gorm:"not null" json:"points_earned"`
	TotalPoints  int       `gorm:"not null" json:"total_points"`
	Passed       bool      `gorm:"type:tinyint(1);default:0" json:"passed"`
	TimeTaken    int       `gorm:"default:0" json:"time_taken"`
	StartedAt    time.Time `gorm:"not null" json:"started_at"`
	CompletedAt  time.Time `gorm:"not null" json:"completed_at"`
	AnswersJSON  string    `gorm:"type:longtext" json:"answers_json"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

type QuizAnswer struct {
	ID              uint64 `gorm:"primaryKey" json:"id"`
	AttemptID       uint64 `gorm:"not null;index" json:"attempt_id"`
	QuestionID      uint64 `gorm:"not null;index" json:"question_id"`
	SelectedOptions string `gorm:"type:text" json:"selected_options"`
	IsCorrect       bool   `gorm:"type:tinyint(1);default:0" json:"is_correct"`
	PointsEarned    int    `gorm:"default:0" json:"points_earned"`
}

func (QuizAnswer) TableName() string {
	return "quiz_answers"
}
