package repository

import (
	"context"
	"errors"
	"peer_quiz_backend/internal/model"
	"peer_quiz_backend/internal/util"

	"gorm.io/gorm"
)

type ResponseMapRepository struct {
	DB *gorm.DB
}

func NewResponseMapRepository(db *gorm.DB) *ResponseMapRepository {
	return &ResponseMapRepository{DB: db}
}

// WithTx 返回绑定到事务的仓储
func (r *ResponseMapRepository) WithTx(tx *gorm.DB) *ResponseMapRepository {
	return &ResponseMapRepository{DB: tx}
}

func (r *ResponseMapRepository) FindByID(ctx context.Context, id uint) (*model.ResponseMap, error) {
	var m model.ResponseMap
	err := r.DB.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.NewNotFound(util.ErrResponseMapNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListByReviewer 按创建顺序返回评审者的映射
func (r *ResponseMapRepository) ListByReviewer(ctx context.Context, reviewerID uint, mapType string) ([]model.ResponseMap, error) {
	var maps []model.ResponseMap
	err := r.DB.WithContext(ctx).
		Where("reviewer_id = ? AND type = ?", reviewerID, mapType).
		Order("id asc").
		Find(&maps).Error
	return maps, err
}

// FindQuizMap 没有则返回 nil, nil
func (r *ResponseMapRepository) FindQuizMap(ctx context.Context, reviewerID, questionnaireID uint) (*model.ResponseMap, error) {
	var maps []model.ResponseMap
	err := r.DB.WithContext(ctx).
		Where("type = ? AND reviewer_id = ? AND reviewed_object_id = ?", model.QuizResponseMapType, reviewerID, questionnaireID).
		Order("id asc").
		Limit(1).
		Find(&maps).Error
	if err != nil {
		return nil, err
	}
	if len(maps) == 0 {
		return nil, nil
	}
	return &maps[0], nil
}

func (r *ResponseMapRepository) Create(ctx context.Context, m *model.ResponseMap) error {
	return r.DB.WithContext(ctx).Create(m).Error
}

// HasTakenQuiz 评审者在该问卷的测验映射下是否已有答题记录
func (r *ResponseMapRepository) HasTakenQuiz(ctx context.Context, reviewerID, questionnaireID uint) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).
		Model(&model.Response{}).
		Joins("JOIN response_maps m ON m.id = responses.map_id AND m.deleted_at IS NULL").
		Where("m.type = ? AND m.reviewer_id = ? AND m.reviewed_object_id = ?", model.QuizResponseMapType, reviewerID, questionnaireID).
		Count(&count).Error
	return count > 0, err
}

// FindResponseByMap 没有则返回 nil, nil
func (r *ResponseMapRepository) FindResponseByMap(ctx context.Context, mapID uint) (*model.Response, error) {
	var rs []model.Response
	err := r.DB.WithContext(ctx).
		Where("map_id = ?", mapID).
		Order("id desc").
		Limit(1).
		Find(&rs).Error
	if err != nil {
		return nil, err
	}
	if len(rs) == 0 {
		return nil, nil
	}
	return &rs[0], nil
}

func (r *ResponseMapRepository) CreateResponse(ctx context.Context, resp *model.Response) error {
	return r.DB.WithContext(ctx).Create(resp).Error
}

func (r *ResponseMapRepository) CreateAnswers(ctx context.Context, answers []model.Answer) error {
	if len(answers) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).CreateInBatches(&answers, 100).Error
}

func (r *ResponseMapRepository) ListAnswers(ctx context.Context, responseID uint) ([]model.Answer, error) {
	var answers []model.Answer
	err := r.DB.WithContext(ctx).Where("response_id = ?", responseID).Order("id asc").Find(&answers).Error
	return answers, err
}
