package repository

import (
	"context"
	"errors"
	"fmt"
	"peer_quiz_backend/internal/model"
	"peer_quiz_backend/internal/util"

	"gorm.io/gorm"
)

// QuizRepository 答案键及参与者/团队的只读查询
type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

func (r *QuizRepository) FindQuestionnaire(ctx context.Context, id uint) (*model.Questionnaire, error) {
	var q model.Questionnaire
	err := r.DB.WithContext(ctx).First(&q, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.NewNotFound(util.ErrQuestionnaireNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// FindQuizByTeam 团队出的测验问卷，没有则返回 nil, nil
func (r *QuizRepository) FindQuizByTeam(ctx context.Context, teamID uint) (*model.Questionnaire, error) {
	var qs []model.Questionnaire
	err := r.DB.WithContext(ctx).
		Where("instructor_id = ? AND type = ?", teamID, model.QuizQuestionnaireType).
		Order("id asc").
		Limit(1).
		Find(&qs).Error
	if err != nil {
		return nil, err
	}
	if len(qs) == 0 {
		return nil, nil
	}
	return &qs[0], nil
}

func (r *QuizRepository) ListQuizzesByAssignment(ctx context.Context, assignmentID uint) ([]model.Questionnaire, error) {
	var qs []model.Questionnaire
	err := r.DB.WithContext(ctx).
		Joins("JOIN teams ON teams.id = questionnaires.instructor_id AND teams.deleted_at IS NULL").
		Where("teams.parent_id = ? AND questionnaires.type = ?", assignmentID, model.QuizQuestionnaireType).
		Order("teams.id asc, questionnaires.id asc").
		Find(&qs).Error
	return qs, err
}

// QuestionsFor 加载问卷的全部题目及选项，并校验题型
func (r *QuizRepository) QuestionsFor(ctx context.Context, questionnaireID uint) ([]model.Question, error) {
	var qs []model.Question
	err := r.DB.WithContext(ctx).
		Preload("Choices", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Where("questionnaire_id = ?", questionnaireID).
		Order("seq asc, id asc").
		Find(&qs).Error
	if err != nil {
		return nil, err
	}
	for i := range qs {
		t, err := model.ParseQuestionType(string(qs[i].Type))
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", qs[i].ID, err)
		}
		qs[i].Type = t
	}
	return qs, nil
}

// ChoicesFor 单道题的选项，按 id 排序
func (r *QuizRepository) ChoicesFor(ctx context.Context, questionID uint) ([]model.QuizQuestionChoice, error) {
	var cs []model.QuizQuestionChoice
	err := r.DB.WithContext(ctx).Where("question_id = ?", questionID).Order("id asc").Find(&cs).Error
	return cs, err
}

func (r *QuizRepository) FindTeam(ctx context.Context, id uint) (*model.Team, error) {
	var t model.Team
	err := r.DB.WithContext(ctx).First(&t, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.NewNotFound(util.ErrTeamNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *QuizRepository) FindParticipant(ctx context.Context, id uint) (*model.Participant, error) {
	var p model.Participant
	err := r.DB.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.NewNotFound(util.ErrParticipantNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *QuizRepository) FindParticipantByUser(ctx context.Context, userID, assignmentID uint) (*model.Participant, error) {
	var p model.Participant
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND parent_id = ?", userID, assignmentID).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.NewNotFound(util.ErrParticipantNotFound, userID)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
