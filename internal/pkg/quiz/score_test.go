package quiz

import (
	"testing"

	"github.com/JFernandezWeb/LumenLMS/app/models"
)

// question builds a multiple-select question where options 1 and 2
// are correct and option 3 is wrong.
func question(id uint64, points int) GradedQuestion {
	return GradedQuestion{
		Question: models.QuizQuestion{ID: id, Points: points, QuestionType: models.QuestionTypeMultipleSelect},
		Options: []models.QuizOption{
			{ID: 1, QuestionID: id, IsCorrect: true},
			{ID: 2, QuestionID: id, IsCorrect: true},
			{ID: 3, QuestionID: id, IsCorrect: false},
		},
	}
}

func TestGradeExactSetMatching(t *testing.T) {
	questions := []GradedQuestion{question(10, 5)}

	cases := []struct {
		name     string
		selected []uint64
		want     int
	}{
		{"exact match earns full points", []uint64{1, 2}, 5},
		{"order does not matter", []uint64{2, 1}, 5},
		{"partial selection earns zero", []uint64{1}, 0},
		{"superset earns zero", []uint64{1, 2, 3}, 0},
		{"wrong option earns zero", []uint64{3}, 0},
		{"no selection earns zero", nil, 0},
		{"duplicate ids collapse", []uint64{1, 1, 2}, 5},
	}
	for _, tc := range cases {
		res := Grade(questions, map[uint64][]uint64{10: tc.selected})
		if res.PointsEarned != tc.want {
			t.Errorf("%s: earned %d, want %d", tc.name, res.PointsEarned, tc.want)
		}
	}
}

func TestGradeAggregation(t *testing.T) {
	questions := []GradedQuestion{question(10, 3), question(20, 7)}
	answers := map[uint64][]uint64{
		10: {1, 2},
		20: {3},
	}

	res := Grade(questions, answers)
	if res.TotalPoints != 10 {
		t.Fatalf("TotalPoints = %d, want 10", res.TotalPoints)
	}
	if res.PointsEarned != 3 {
		t.Fatalf("PointsEarned = %d, want 3", res.PointsEarned)
	}
	if res.Score != 30 {
		t.Fatalf("Score = %v, want 30", res.Score)
	}
	if len(res.Questions) != 2 || !res.Questions[0].Correct || res.Questions[1].Correct {
		t.Fatalf("per-question results wrong: %+v", res.Questions)
	}
}

func TestGradeEmptyQuiz(t *testing.T) {
	res := Grade(nil, nil)
	if res.Score != 0 || res.TotalPoints != 0 {
		t.Fatalf("empty quiz must score zero, got %+v", res)
	}
}

func TestGradeQuestionWithoutCorrectOptions(t *testing.T) {
	questions := []GradedQuestion{{
		Question: models.QuizQuestion{ID: 10, Points: 5},
		Options: []models.QuizOption{
			{ID: 1, IsCorrect: false},
		},
	}}
	res := Grade(questions, map[uint64][]uint64{10: {1}})
	if res.PointsEarned != 0 {
		t.Fatal("unanswerable question must never award points")
	}
	if res.TotalPoints != 5 {
		t.Fatal("unanswerable question still counts toward the total")
	}
}

func TestPassed(t *testing.T) {
	quiz := &models.Quiz{PassingScore: 70}
	if !Passed(quiz, 70) {
		t.Fatal("score equal to threshold must pass")
	}
	if Passed(quiz, 69.9) {
		t.Fatal("score below threshold must not pass")
	}
}
