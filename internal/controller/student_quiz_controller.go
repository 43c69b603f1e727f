package controller

import (
	"errors"
	"fmt"
	"net/http"
	"peer_quiz_backend/internal/model"
	"peer_quiz_backend/internal/service"
	"peer_quiz_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type StudentQuizController struct {
	Service *service.StudentQuizService
}

func NewStudentQuizController(svc *service.StudentQuizService) *StudentQuizController {
	return &StudentQuizController{Service: svc}
}

type SubmitQuizReq struct {
	AssignmentID uint             `json:"assignmentId"`
	Answers      model.RawAnswers `json:"answers" binding:"required"`
}

// @Summary 获取可参加的测验
// @Description 当前用户在作业中作为评审者仍可参加的测验问卷
// @Tags 同伴测验
// @Produce json
// @Security BearerAuth
// @Param assignmentId path int true "作业ID"
// @Success 200 {object} util.Response
// @Router /assignments/{assignmentId}/quizzes [get]
func (c *StudentQuizController) ListTakeableQuizzes(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	assignmentID, ok := util.ParamID(ctx, "assignmentId")
	if !ok {
		return
	}

	quizzes, err := c.Service.ListTakeableQuizzesForUser(ctx.Request.Context(), assignmentID, user.UserID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, quizzes)
}

// @Summary 获取评审者的测验映射
// @Tags 同伴测验
// @Produce json
// @Security BearerAuth
// @Param participantId path int true "参与者ID"
// @Success 200 {object} util.Response
// @Router /participants/{participantId}/quiz-mappings [get]
func (c *StudentQuizController) QuizMappings(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	participantID, ok := util.ParamID(ctx, "participantId")
	if !ok {
		return
	}

	if !user.Role.IsStaff() {
		owned, err := c.Service.ParticipantOwnedBy(ctx.Request.Context(), user.UserID, participantID)
		if err != nil {
			handleServiceError(ctx, err)
			return
		}
		if !owned {
			util.Forbidden(ctx)
			return
		}
	}

	maps, err := c.Service.QuizMappings(ctx.Request.Context(), participantID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, maps)
}

// @Summary 开始测验
// @Description 查找或创建当前用户对该测验的映射
// @Tags 同伴测验
// @Produce json
// @Security BearerAuth
// @Param assignmentId path int true "作业ID"
// @Param questionnaireId path int true "问卷ID"
// @Success 200 {object} util.Response
// @Router /assignments/{assignmentId}/quizzes/{questionnaireId}/start [post]
func (c *StudentQuizController) StartQuiz(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	assignmentID, ok := util.ParamID(ctx, "assignmentId")
	if !ok {
		return
	}
	questionnaireID, ok := util.ParamID(ctx, "questionnaireId")
	if !ok {
		return
	}

	p, err := c.Service.QuizRepo.FindParticipantByUser(ctx.Request.Context(), user.UserID, assignmentID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}

	m, err := c.Service.StartQuiz(ctx.Request.Context(), p.ID, questionnaireID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, m)
}

// @Summary 提交测验
// @Description 每个映射只能成功提交一次；未答完所有题目时整份提交作废
// @Tags 同伴测验
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param mapId path int true "测验映射ID"
// @Param body body SubmitQuizReq true "作答"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response
// @Failure 422 {object} util.Response
// @Router /quiz-maps/{mapId}/submit [post]
func (c *StudentQuizController) SubmitQuiz(ctx *gin.Context) {
	mapID, ok := util.ParamID(ctx, "mapId")
	if !ok || !c.authorizeMap(ctx, mapID) {
		return
	}

	var req SubmitQuizReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.Service.SubmitQuiz(ctx.Request.Context(), mapID, req.Answers)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}

	switch result.Status {
	case service.SubmitCompleted:
		util.Success(ctx, gin.H{
			"submission": result,
			"redirect":   resultPath(mapID),
		})
	case service.SubmitAlreadyTaken:
		util.ErrorWithData(ctx, http.StatusConflict, result.Message, gin.H{
			"submission": result,
			"redirect":   resultPath(mapID),
		})
	default:
		util.ErrorWithData(ctx, http.StatusUnprocessableEntity, result.Message, gin.H{
			"submission":   result,
			"assignmentId": req.AssignmentID,
			"redirect":     fmt.Sprintf("/api/assignments/%d/quizzes/%d/start", req.AssignmentID, result.QuestionnaireID),
		})
	}
}

// @Summary 查看测验结果
// @Tags 同伴测验
// @Produce json
// @Security BearerAuth
// @Param mapId path int true "测验映射ID"
// @Success 200 {object} util.Response
// @Router /quiz-maps/{mapId}/result [get]
func (c *StudentQuizController) QuizResult(ctx *gin.Context) {
	mapID, ok := util.ParamID(ctx, "mapId")
	if !ok || !c.authorizeMap(ctx, mapID) {
		return
	}

	result, err := c.Service.QuizResult(ctx.Request.Context(), mapID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// @Summary 查看作业下的全部测验问卷
// @Tags 同伴测验
// @Produce json
// @Security BearerAuth
// @Param assignmentId path int true "作业ID"
// @Success 200 {object} util.Response
// @Router /teacher/assignments/{assignmentId}/quiz-questionnaires [get]
func (c *StudentQuizController) ReviewQuestions(ctx *gin.Context) {
	assignmentID, ok := util.ParamID(ctx, "assignmentId")
	if !ok {
		return
	}

	qs, err := c.Service.ReviewQuestions(ctx.Request.Context(), assignmentID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, qs)
}

// authorizeMap 学生只能操作自己作为评审者的映射，教师和管理员不受限
func (c *StudentQuizController) authorizeMap(ctx *gin.Context, mapID uint) bool {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return false
	}
	if user.Role.IsStaff() {
		return true
	}
	owned, err := c.Service.ReviewerOwnsMap(ctx.Request.Context(), user.UserID, mapID)
	if err != nil {
		handleServiceError(ctx, err)
		return false
	}
	if !owned {
		util.Forbidden(ctx)
		return false
	}
	return true
}

func resultPath(mapID uint) string {
	return fmt.Sprintf("/api/quiz-maps/%d/result", mapID)
}

func handleServiceError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrNotFound):
		util.Error(ctx, http.StatusNotFound, err.Error())
	case errors.Is(err, util.ErrNotQuizQuestionnaire), errors.Is(err, util.ErrQuizNotInAssignment):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrLockTimeout):
		util.Error(ctx, http.StatusServiceUnavailable, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
