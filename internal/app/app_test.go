package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"peer_quiz_backend/internal/config"
	"peer_quiz_backend/internal/model"
	"peer_quiz_backend/internal/testutil"
	"peer_quiz_backend/internal/util"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-test-secret-test-secret"

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestApp(t *testing.T, opts ...func(*config.Config)) (*App, *testutil.Scenario) {
	t.Helper()
	db := testutil.NewDB(t)
	sc := testutil.SeedScenario(t, db)

	cfg := &config.Config{
		Server:    config.ServerConfig{Port: "0", Mode: "test"},
		JWT:       config.JWTConfig{Secret: testSecret, ExpireTime: time.Hour},
		RateLimit: config.RateLimitConfig{MaxRequests: 10000, WindowMinutes: 1},
		Quiz:      config.QuizConfig{LockWaitMillis: 5000},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return New(cfg, db, nil), sc
}

func token(t *testing.T, userID uint, role model.UserRole) string {
	t.Helper()
	tok, err := util.GenerateJWT(userID, role, testSecret, time.Hour)
	require.NoError(t, err)
	return tok
}

func do(t *testing.T, a *App, method, path, tok string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func submitBody(sc *testutil.Scenario, q2 ...string) map[string]interface{} {
	answers := map[string]interface{}{
		fmt.Sprint(sc.Q1.ID): "True",
	}
	if len(q2) > 0 {
		answers[fmt.Sprint(sc.Q2.ID)] = q2
	}
	return map[string]interface{}{
		"assignmentId": testutil.AssignmentID,
		"answers":      answers,
	}
}

func TestHealth(t *testing.T) {
	a, _ := newTestApp(t)

	w, env := do(t, a, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"database":"up"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestAuthRequired(t *testing.T) {
	a, sc := newTestApp(t)

	w, _ := do(t, a, http.MethodPost, fmt.Sprintf("/api/quiz-maps/%d/submit", sc.QuizMap.ID), "", submitBody(sc, "X", "Y"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = do(t, a, http.MethodGet, "/api/assignments/1/quizzes", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSubmitFlow(t *testing.T) {
	a, sc := newTestApp(t)
	alice := token(t, testutil.ReviewerUserID, model.Student)
	submitPath := fmt.Sprintf("/api/quiz-maps/%d/submit", sc.QuizMap.ID)

	w, env := do(t, a, http.MethodGet, "/api/assignments/1/quizzes", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var quizzes []model.Questionnaire
	require.NoError(t, json.Unmarshal(env.Data, &quizzes))
	require.Len(t, quizzes, 1)
	assert.Equal(t, sc.Quiz.ID, quizzes[0].ID)

	w, env = do(t, a, http.MethodPost, submitPath, alice, submitBody(sc))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "Please answer every question.", env.Message)
	assert.Contains(t, string(env.Data), fmt.Sprintf(`"redirect":"/api/assignments/1/quizzes/%d/start"`, sc.Quiz.ID))

	w, env = do(t, a, http.MethodPost, submitPath, alice, submitBody(sc, "X", "Y"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var completed struct {
		Submission struct {
			Status    string `json:"status"`
			AttemptID uint   `json:"attemptId"`
		} `json:"submission"`
		Redirect string `json:"redirect"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &completed))
	assert.Equal(t, "completed", completed.Submission.Status)
	assert.NotZero(t, completed.Submission.AttemptID)
	assert.Equal(t, fmt.Sprintf("/api/quiz-maps/%d/result", sc.QuizMap.ID), completed.Redirect)

	w, env = do(t, a, http.MethodPost, submitPath, alice, submitBody(sc, "X"))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, string(env.Data), fmt.Sprintf(`"attemptId":%d`, completed.Submission.AttemptID))

	w, env = do(t, a, http.MethodGet, fmt.Sprintf("/api/quiz-maps/%d/result", sc.QuizMap.ID), alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var result struct {
		Score   float64        `json:"score"`
		Answers []model.Answer `json:"answers"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 100.0, result.Score)
	assert.Len(t, result.Answers, 3)
	assert.NotContains(t, w.Body.String(), "iscorrect")

	w, env = do(t, a, http.MethodGet, "/api/assignments/1/quizzes", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestSubmitBadRequest(t *testing.T) {
	a, sc := newTestApp(t)
	alice := token(t, testutil.ReviewerUserID, model.Student)
	submitPath := fmt.Sprintf("/api/quiz-maps/%d/submit", sc.QuizMap.ID)

	w, _ := do(t, a, http.MethodPost, submitPath, alice, map[string]interface{}{"assignmentId": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, a, http.MethodPost, submitPath, alice, map[string]interface{}{
		"answers": map[string]interface{}{fmt.Sprint(sc.Q1.ID): 42},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitOwnership(t *testing.T) {
	a, sc := newTestApp(t)
	mallory := token(t, 2002, model.Student)
	teacher := token(t, 9, model.Teacher)

	w, _ := do(t, a, http.MethodPost, fmt.Sprintf("/api/quiz-maps/%d/submit", sc.QuizMap.ID), mallory, submitBody(sc, "X", "Y"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = do(t, a, http.MethodPost, "/api/quiz-maps/9999/submit", teacher, submitBody(sc, "X", "Y"))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, a, http.MethodPost, "/api/quiz-maps/9999/submit", mallory, submitBody(sc, "X", "Y"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResultBeforeSubmit(t *testing.T) {
	a, sc := newTestApp(t)
	alice := token(t, testutil.ReviewerUserID, model.Student)

	w, _ := do(t, a, http.MethodGet, fmt.Sprintf("/api/quiz-maps/%d/result", sc.QuizMap.ID), alice, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStartQuizAndMappings(t *testing.T) {
	a, sc := newTestApp(t)
	alice := token(t, testutil.ReviewerUserID, model.Student)

	w, env := do(t, a, http.MethodPost, fmt.Sprintf("/api/assignments/1/quizzes/%d/start", sc.Quiz.ID), alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var m model.ResponseMap
	require.NoError(t, json.Unmarshal(env.Data, &m))
	assert.Equal(t, sc.QuizMap.ID, m.ID)

	w, _ = do(t, a, http.MethodPost, "/api/assignments/1/quizzes/9999/start", alice, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = do(t, a, http.MethodGet, fmt.Sprintf("/api/participants/%d/quiz-mappings", sc.Reviewer.ID), alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var maps []model.ResponseMap
	require.NoError(t, json.Unmarshal(env.Data, &maps))
	assert.Len(t, maps, 1)

	w, _ = do(t, a, http.MethodGet, fmt.Sprintf("/api/participants/%d/quiz-mappings", sc.Reviewer.ID), token(t, 2002, model.Student), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestTeacherRoute(t *testing.T) {
	a, sc := newTestApp(t)
	path := "/api/teacher/assignments/1/quiz-questionnaires"

	w, _ := do(t, a, http.MethodGet, path, token(t, testutil.ReviewerUserID, model.Student), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	for _, role := range []model.UserRole{model.Teacher, model.Admin} {
		w, env := do(t, a, http.MethodGet, path, token(t, 9, role), nil)
		require.Equal(t, http.StatusOK, w.Code)
		var qs []model.Questionnaire
		require.NoError(t, json.Unmarshal(env.Data, &qs))
		require.Len(t, qs, 1)
		assert.Equal(t, sc.Quiz.ID, qs[0].ID)
	}
}

func TestConfigReloadRotatesSecret(t *testing.T) {
	a, _ := newTestApp(t)
	alice := token(t, testutil.ReviewerUserID, model.Student)

	w, _ := do(t, a, http.MethodGet, "/api/assignments/1/quizzes", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)

	reloaded := *a.Config
	reloaded.JWT.Secret = "another-secret-another-secret-another"
	a.applyConfig(&reloaded)

	w, _ = do(t, a, http.MethodGet, "/api/assignments/1/quizzes", alice, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSubmitOnReviewMapIsNotFound(t *testing.T) {
	a, sc := newTestApp(t)
	alice := token(t, testutil.ReviewerUserID, model.Student)

	var review model.ResponseMap
	require.NoError(t, a.DB.Where("type = ? AND reviewer_id = ?", model.ReviewResponseMapType, sc.Reviewer.ID).First(&review).Error)

	w, _ := do(t, a, http.MethodPost, fmt.Sprintf("/api/quiz-maps/%d/submit", review.ID), alice, submitBody(sc, "X", "Y"))
	assert.Equal(t, http.StatusNotFound, w.Code)

	var n int64
	require.NoError(t, a.DB.Model(&model.Response{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestInvalidPathIDIsBadRequest(t *testing.T) {
	a, sc := newTestApp(t)
	alice := token(t, testutil.ReviewerUserID, model.Student)
	teacher := token(t, 9, model.Teacher)

	for _, path := range []string{
		"/api/assignments/abc/quizzes",
		"/api/assignments/0/quizzes",
		"/api/participants/x/quiz-mappings",
		fmt.Sprintf("/api/quiz-maps/%d0000000000/result", sc.QuizMap.ID),
	} {
		w, _ := do(t, a, http.MethodGet, path, alice, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}

	w, _ := do(t, a, http.MethodPost, "/api/quiz-maps/-1/submit", alice, submitBody(sc, "X", "Y"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, a, http.MethodPost, fmt.Sprintf("/api/assignments/%d/quizzes/nope/start", testutil.AssignmentID), alice, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, a, http.MethodGet, "/api/teacher/assignments/abc/quiz-questionnaires", teacher, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitIsRateLimitedPerMap(t *testing.T) {
	a, sc := newTestApp(t, func(c *config.Config) { c.RateLimit.SubmitPerMinute = 1 })
	alice := token(t, testutil.ReviewerUserID, model.Student)
	submitPath := fmt.Sprintf("/api/quiz-maps/%d/submit", sc.QuizMap.ID)

	w, _ := do(t, a, http.MethodPost, submitPath, alice, submitBody(sc, "X", "Y"))
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, a, http.MethodPost, submitPath, alice, submitBody(sc, "X", "Y"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}
