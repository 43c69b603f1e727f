package service

import (
	"context"
	"errors"
	"fmt"
	"peer_quiz_backend/internal/model"
	"peer_quiz_backend/internal/repository"
	"peer_quiz_backend/internal/util"
	"peer_quiz_backend/pkg/logger"
	"peer_quiz_backend/pkg/monitoring"
	"peer_quiz_backend/pkg/tracing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	MsgAnswerEveryQuestion = "Please answer every question."
	MsgAlreadyTaken        = "You have already taken this quiz, below are the records for your responses."
)

type SubmitStatus string

const (
	SubmitCompleted    SubmitStatus = "completed"
	SubmitAlreadyTaken SubmitStatus = "already_taken"
	SubmitRejected     SubmitStatus = "rejected"
)

// SubmitResult Completed/AlreadyTaken 时 AttemptID 指向结果页，Rejected 时带回重新作答所需的上下文
type SubmitResult struct {
	Status          SubmitStatus   `json:"status"`
	AttemptID       uint           `json:"attemptId,omitempty"`
	MapID           uint           `json:"mapId"`
	QuestionnaireID uint           `json:"questionnaireId"`
	Message         string         `json:"message,omitempty"`
	Unanswered      []uint         `json:"unanswered,omitempty"`
	Answers         []model.Answer `json:"answers,omitempty"`
}

type QuizResult struct {
	Attempt       model.Response      `json:"attempt"`
	Questionnaire model.Questionnaire `json:"questionnaire"`
	Questions     []model.Question    `json:"questions"`
	Answers       []model.Answer      `json:"answers"`
	Score         float64             `json:"score"`
}

type StudentQuizService struct {
	DB       *gorm.DB
	QuizRepo *repository.QuizRepository
	MapRepo  *repository.ResponseMapRepository
	Locker   SubmissionLocker
	Now      func() time.Time
}

func NewStudentQuizService(db *gorm.DB, quizRepo *repository.QuizRepository, mapRepo *repository.ResponseMapRepository, locker SubmissionLocker) *StudentQuizService {
	return &StudentQuizService{
		DB:       db,
		QuizRepo: quizRepo,
		MapRepo:  mapRepo,
		Locker:   locker,
		Now:      time.Now,
	}
}

// ListTakeableQuizzes 评审者在作业中仍可参加的测验：遍历其评审映射，
// 取被评团队出的测验问卷，排除已答过的。按映射创建顺序返回
func (s *StudentQuizService) ListTakeableQuizzes(ctx context.Context, assignmentID, reviewerID uint) ([]model.Questionnaire, error) {
	ctx, span := tracing.Tracer.Start(ctx, "StudentQuizService.ListTakeableQuizzes", trace.WithAttributes(
		attribute.Int64("quiz.assignment_id", int64(assignmentID)),
		attribute.Int64("quiz.reviewer_id", int64(reviewerID)),
	))
	defer span.End()

	maps, err := s.MapRepo.ListByReviewer(ctx, reviewerID, model.ReviewResponseMapType)
	if err != nil {
		return nil, err
	}

	quizzes := make([]model.Questionnaire, 0, len(maps))
	seen := make(map[uint]bool, len(maps))
	for _, m := range maps {
		team, err := s.QuizRepo.FindTeam(ctx, m.RevieweeID)
		if err != nil {
			return nil, err
		}
		if team.ParentID != assignmentID {
			continue
		}

		quiz, err := s.QuizRepo.FindQuizByTeam(ctx, team.ID)
		if err != nil {
			return nil, err
		}
		if quiz == nil || seen[quiz.ID] {
			continue
		}

		taken, err := s.MapRepo.HasTakenQuiz(ctx, reviewerID, quiz.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			continue
		}
		seen[quiz.ID] = true
		quizzes = append(quizzes, *quiz)
	}
	return quizzes, nil
}

// ListTakeableQuizzesForUser 先按 (用户, 作业) 找到参与者
func (s *StudentQuizService) ListTakeableQuizzesForUser(ctx context.Context, assignmentID, userID uint) ([]model.Questionnaire, error) {
	p, err := s.QuizRepo.FindParticipantByUser(ctx, userID, assignmentID)
	if err != nil {
		return nil, err
	}
	return s.ListTakeableQuizzes(ctx, assignmentID, p.ID)
}

// StartQuiz 查找或创建评审者对该测验的映射
func (s *StudentQuizService) StartQuiz(ctx context.Context, reviewerID, questionnaireID uint) (*model.ResponseMap, error) {
	reviewer, err := s.QuizRepo.FindParticipant(ctx, reviewerID)
	if err != nil {
		return nil, err
	}
	quiz, err := s.QuizRepo.FindQuestionnaire(ctx, questionnaireID)
	if err != nil {
		return nil, err
	}
	if quiz.Type != model.QuizQuestionnaireType {
		return nil, util.ErrNotQuizQuestionnaire
	}
	team, err := s.QuizRepo.FindTeam(ctx, quiz.InstructorID)
	if err != nil {
		return nil, err
	}
	if team.ParentID != reviewer.ParentID {
		return nil, util.ErrQuizNotInAssignment
	}

	unlock, err := s.Locker.Lock(ctx, fmt.Sprintf("start:%d:%d", reviewerID, questionnaireID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	existing, err := s.MapRepo.FindQuizMap(ctx, reviewerID, questionnaireID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	m := &model.ResponseMap{
		Type:             model.QuizResponseMapType,
		ReviewerID:       reviewerID,
		RevieweeID:       team.ID,
		ReviewedObjectID: quiz.ID,
	}
	if err := s.MapRepo.Create(ctx, m); err != nil {
		return nil, err
	}
	logger.Log.Info("quiz map created",
		zap.Uint("map_id", m.ID),
		zap.Uint("reviewer_id", reviewerID),
		zap.Uint("questionnaire_id", questionnaireID),
	)
	return m, nil
}

func (s *StudentQuizService) QuizMappings(ctx context.Context, participantID uint) ([]model.ResponseMap, error) {
	if _, err := s.QuizRepo.FindParticipant(ctx, participantID); err != nil {
		return nil, err
	}
	return s.MapRepo.ListByReviewer(ctx, participantID, model.QuizResponseMapType)
}

// errRaceLost 并发提交时唯一索引冲突
var errRaceLost = errors.New("concurrent attempt committed first")

// SubmitQuiz 守卫检查、创建答题记录、评分、写入答案在同一事务内完成；
// 未答完时事务回滚，答题记录不会留下
func (s *StudentQuizService) SubmitQuiz(ctx context.Context, mapID uint, raw model.RawAnswers) (*SubmitResult, error) {
	ctx, span := tracing.Tracer.Start(ctx, "StudentQuizService.SubmitQuiz", trace.WithAttributes(
		attribute.Int64("quiz.map_id", int64(mapID)),
	))
	defer span.End()

	start := time.Now()
	result, err := s.submit(ctx, mapID, raw)
	monitoring.ScoringDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		monitoring.QuizSubmissions.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	monitoring.QuizSubmissions.WithLabelValues(string(result.Status)).Inc()
	span.SetAttributes(attribute.String("quiz.outcome", string(result.Status)))
	logger.Log.Info("quiz submission",
		zap.Uint("map_id", mapID),
		zap.String("outcome", string(result.Status)),
		zap.Uint("attempt_id", result.AttemptID),
		zap.Int("answers", len(result.Answers)),
	)
	return result, nil
}

func (s *StudentQuizService) submit(ctx context.Context, mapID uint, raw model.RawAnswers) (*SubmitResult, error) {
	m, questionnaire, err := s.loadQuizMap(ctx, mapID)
	if err != nil {
		return nil, err
	}
	questions, err := s.QuizRepo.QuestionsFor(ctx, questionnaire.ID)
	if err != nil {
		return nil, err
	}

	unlock, err := s.Locker.Lock(ctx, fmt.Sprintf("submit:%d", mapID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var result *SubmitResult
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.MapRepo.WithTx(tx)

		existing, err := repo.FindResponseByMap(ctx, mapID)
		if err != nil {
			return err
		}
		if existing != nil {
			result = alreadyTaken(m, existing.ID)
			return nil
		}

		now := s.Now()
		attempt := &model.Response{MapID: mapID, CreatedAt: now, UpdatedAt: now}
		if err := repo.CreateResponse(ctx, attempt); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errRaceLost
			}
			return err
		}

		answers, err := ScoreSubmission(questions, raw, attempt.ID)
		if err != nil {
			return err
		}
		if err := repo.CreateAnswers(ctx, answers); err != nil {
			return err
		}

		result = &SubmitResult{
			Status:          SubmitCompleted,
			AttemptID:       attempt.ID,
			MapID:           mapID,
			QuestionnaireID: m.ReviewedObjectID,
			Answers:         answers,
		}
		return nil
	})

	var incomplete *IncompleteSubmissionError
	switch {
	case err == nil:
		return result, nil
	case errors.As(err, &incomplete):
		return &SubmitResult{
			Status:          SubmitRejected,
			MapID:           mapID,
			QuestionnaireID: m.ReviewedObjectID,
			Message:         MsgAnswerEveryQuestion,
			Unanswered:      incomplete.Unanswered,
		}, nil
	case errors.Is(err, errRaceLost):
		existing, ferr := s.MapRepo.FindResponseByMap(ctx, mapID)
		if ferr != nil {
			return nil, ferr
		}
		if existing == nil {
			return nil, err
		}
		return alreadyTaken(m, existing.ID), nil
	default:
		return nil, err
	}
}

// loadQuizMap 只接受测验映射，且其目标必须是测验问卷。评审映射按不存在处理
func (s *StudentQuizService) loadQuizMap(ctx context.Context, mapID uint) (*model.ResponseMap, *model.Questionnaire, error) {
	m, err := s.MapRepo.FindByID(ctx, mapID)
	if err != nil {
		return nil, nil, err
	}
	if m.Type != model.QuizResponseMapType {
		return nil, nil, util.NewNotFound(util.ErrResponseMapNotFound, mapID)
	}
	questionnaire, err := s.QuizRepo.FindQuestionnaire(ctx, m.ReviewedObjectID)
	if err != nil {
		return nil, nil, err
	}
	if questionnaire.Type != model.QuizQuestionnaireType {
		return nil, nil, util.ErrNotQuizQuestionnaire
	}
	return m, questionnaire, nil
}

func alreadyTaken(m *model.ResponseMap, attemptID uint) *SubmitResult {
	return &SubmitResult{
		Status:          SubmitAlreadyTaken,
		AttemptID:       attemptID,
		MapID:           m.ID,
		QuestionnaireID: m.ReviewedObjectID,
		Message:         MsgAlreadyTaken,
	}
}

// QuizResult 已提交测验的题目、作答与得分
func (s *StudentQuizService) QuizResult(ctx context.Context, mapID uint) (*QuizResult, error) {
	_, questionnaire, err := s.loadQuizMap(ctx, mapID)
	if err != nil {
		return nil, err
	}
	attempt, err := s.MapRepo.FindResponseByMap(ctx, mapID)
	if err != nil {
		return nil, err
	}
	if attempt == nil {
		return nil, util.NewNotFound(util.ErrAttemptNotFound, mapID)
	}
	questions, err := s.QuizRepo.QuestionsFor(ctx, questionnaire.ID)
	if err != nil {
		return nil, err
	}
	answers, err := s.MapRepo.ListAnswers(ctx, attempt.ID)
	if err != nil {
		return nil, err
	}

	return &QuizResult{
		Attempt:       *attempt,
		Questionnaire: *questionnaire,
		Questions:     questions,
		Answers:       answers,
		Score:         QuizScore(questions, answers),
	}, nil
}

// ReviewQuestions 作业下所有团队出的测验问卷（教师查看）
func (s *StudentQuizService) ReviewQuestions(ctx context.Context, assignmentID uint) ([]model.Questionnaire, error) {
	qs, err := s.QuizRepo.ListQuizzesByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if qs == nil {
		qs = []model.Questionnaire{}
	}
	return qs, nil
}

// ReviewerOwnsMap 映射的评审者是否为当前用户
func (s *StudentQuizService) ReviewerOwnsMap(ctx context.Context, userID, mapID uint) (bool, error) {
	m, err := s.MapRepo.FindByID(ctx, mapID)
	if err != nil {
		return false, err
	}
	return s.ParticipantOwnedBy(ctx, userID, m.ReviewerID)
}

func (s *StudentQuizService) ParticipantOwnedBy(ctx context.Context, userID, participantID uint) (bool, error) {
	p, err := s.QuizRepo.FindParticipant(ctx, participantID)
	if err != nil {
		return false, err
	}
	return p.UserID == userID, nil
}
