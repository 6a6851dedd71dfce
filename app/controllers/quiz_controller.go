package controllers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/JFernandezWeb/LumenLMS/app/models"
	"github.com/JFernandezWeb/LumenLMS/app/repository"
	"github.com/JFernandezWeb/LumenLMS/internal/pkg/database"
	"github.com/JFernandezWeb/LumenLMS/internal/pkg/quiz"
	"github.com/JFernandezWeb/LumenLMS/internal/pkg/reconcile"
	"github.com/JFernandezWeb/LumenLMS/internal/pkg/usercontext"
)

type quizSubmission struct {
	StartedAt time.Time           `json:"started_at"`
	Answers   map[uint64][]uint64 `json:"answers"`
}

// HandleSubmitQuiz grades a submission with exact-set matching and
// persists the attempt with its per-question answers.
func HandleSubmitQuiz(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login_required"})
	}
	quizID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var submission quizSubmission
	if err := c.BodyParser(&submission); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request"})
	}

	repos := repository.GetGlobalRepositories()
	quizRow, err := repos.Quiz.GetQuizByID(quizID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "load_failed"})
	}
	if quizRow == nil || !quizRow.Published {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "quiz_not_found"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	access := reconcile.NewServiceFromDB(database.GetDB())
	hasAccess, err := access.HasAccess(ctx, userCtx.UserID, quizRow.CourseID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "load_failed"})
	}
	if !hasAccess {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "enrollment_required"})
	}

	if quizRow.MaxAttempts > 0 {
		attempts, err := repos.Quiz.CountAttempts(quizID, userCtx.UserID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "load_failed"})
		}
		if attempts >= int64(quizRow.MaxAttempts) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "max_attempts_reached"})
		}
	}

	questions, err := repos.Quiz.GetQuestions(quizID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "load_failed"})
	}
	options, err := repos.Quiz.GetOptionsByQuiz(quizID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "load_failed"})
	}

	optionsByQuestion := make(map[uint64][]models.QuizOption)
	for _, opt := range options {
		optionsByQuestion[opt.QuestionID] = append(optionsByQuestion[opt.QuestionID], opt)
	}
	graded := make([]quiz.GradedQuestion, 0, len(questions))
	for _, q := range questions {
		graded = append(graded, quiz.GradedQuestion{Question: q, Options: optionsByQuestion[q.ID]})
	}

	result := quiz.Grade(graded, submission.Answers)
	passed := quiz.Passed(quizRow, result.Score)

	now := time.Now()
	startedAt := submission.StartedAt
	if startedAt.IsZero() {
		startedAt = now
	}
	answersJSON, _ := json.Marshal(submission.Answers)

	attempt := &models.QuizAttempt{
		QuizID:       quizID,
		UserID:       userCtx.UserID,
		CourseID:     quizRow.CourseID,
		Score:        result.Score,
		PointsEarned: result.PointsEarned,
		TotalPoints:  result.TotalPoints,
		Passed:       passed,
		TimeTaken:    int(now.Sub(startedAt).Seconds()),
		StartedAt:    startedAt,
		CompletedAt:  now,
		AnswersJSON:  string(answersJSON),
	}
	if err := repos.Quiz.CreateAttempt(attempt); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "save_failed"})
	}

	answerRows := make([]models.QuizAnswer, 0, len(result.Questions))
	for _, qr := range result.Questions {
		selected, _ := json.Marshal(submission.Answers[qr.QuestionID])
		answerRows = append(answerRows, models.QuizAnswer{
			AttemptID:       attempt.ID,
			QuestionID:      qr.QuestionID,
			SelectedOptions: string(selected),
			IsCorrect:       qr.Correct,
			PointsEarned:    qr.PointsEarned,
		})
	}
	if err := repos.Quiz.CreateAnswers(answerRows); err != nil {
		log.Errorf("[Quiz] answer rows for attempt %d: %v", attempt.ID, err)
	}

	response := fiber.Map{
		"attempt_id":    attempt.ID,
		"score":         result.Score,
		"points_earned": result.PointsEarned,
		"total_points":  result.TotalPoints,
		"passed":        passed,
	}
	if quizRow.ShowCorrectAnswers {
		response["questions"] = result.Questions
	}
	return c.Status(fiber.StatusOK).JSON(response)
}
