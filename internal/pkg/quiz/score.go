package quiz

import (
	"github.com/JFernandezWeb/LumenLMS/app/models"
)

// GradedQuestion is one question with its option set, ready to grade.
type GradedQuestion struct {
	Question models.QuizQuestion
	Options  []models.QuizOption
}

// QuestionResult is the grading outcome for one question.
type QuestionResult struct {
	QuestionID   uint64
	Correct      bool
	PointsEarned int
}

// Result is the grading outcome for a whole submission.
type Result struct {
	PointsEarned int
	TotalPoints  int
	Score        float64
	Questions    []QuestionResult
}

// Grade scores a submission with exact-set matching: a question earns
// its points only when the selected option ids equal the correct
// option ids exactly. A superset of the correct answers scores zero,
// so guessing every option never pays.
func Grade(questions []GradedQuestion, answers map[uint64][]uint64) Result {
	result := Result{Questions: make([]QuestionResult, 0, len(questions))}

	for _, gq := range questions {
		result.TotalPoints += gq.Question.Points

		qr := QuestionResult{QuestionID: gq.Question.ID}
		if exactMatch(gq.Options, answers[gq.Question.ID]) {
			qr.Correct = true
			qr.PointsEarned = gq.Question.Points
			result.PointsEarned += gq.Question.Points
		}
		result.Questions = append(result.Questions, qr)
	}

	if result.TotalPoints > 0 {
		result.Score = float64(result.PointsEarned) / float64(result.TotalPoints) * 100
	}
	return result
}

// Passed applies the quiz's passing threshold to a score.
func Passed(quiz *models.Quiz, score float64) bool {
	return score >= quiz.PassingScore
}

func exactMatch(options []models.QuizOption, selected []uint64) bool {
	correct := make(map[uint64]bool)
	for _, opt := range options {
		if opt.IsCorrect {
			correct[opt.ID] = true
		}
	}
	if len(correct) == 0 {
		// A question without a keyed answer can never be earned.
		return false
	}

	chosen := make(map[uint64]bool, len(selected))
	for _, id := range selected {
		chosen[id] = true
	}
	if len(chosen) != len(correct) {
		return false
	}
	for id := range chosen {
		if !correct[id] {
			return false
		}
	}
	return true
}
