// Package testutil 为各包测试提供基于 sqlite 文件的数据库和演示场景
package testutil

import (
	"path/filepath"
	"peer_quiz_backend/internal/config"
	"peer_quiz_backend/internal/model"
	"peer_quiz_backend/pkg/database"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const AssignmentID uint = 1

func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Driver:   database.DriverSQLite,
		DBName:   filepath.Join(t.TempDir(), "test.db"),
		LogLevel: "silent",
	}
	db, err := database.Open(cfg)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// Scenario 一个作业：评审者 Alice 评审团队 T，T 出了测验 Q（Q1 判断题，Q2 多选题）
type Scenario struct {
	Reviewer model.Participant
	Team     model.Team
	Quiz     model.Questionnaire
	Q1       model.Question
	Q2       model.Question
	QuizMap  model.ResponseMap
}

const ReviewerUserID uint = 1001

func SeedScenario(t *testing.T, db *gorm.DB) *Scenario {
	t.Helper()
	s := &Scenario{}

	s.Reviewer = model.Participant{UserID: ReviewerUserID, ParentID: AssignmentID, Handle: "alice"}
	require.NoError(t, db.Create(&s.Reviewer).Error)

	s.Team = CreateTeam(t, db, "Team T", AssignmentID)
	s.Quiz = CreateQuiz(t, db, s.Team.ID, "Team T quiz")

	s.Q1 = CreateQuestion(t, db, s.Quiz.ID, model.TrueFalse, 1, map[string]bool{"True": true, "False": false})
	s.Q2 = CreateQuestion(t, db, s.Quiz.ID, model.MultipleChoiceCheckbox, 2, map[string]bool{"X": true, "Y": true, "Z": false})

	CreateReviewMap(t, db, s.Reviewer.ID, s.Team.ID)

	s.QuizMap = model.ResponseMap{
		Type:             model.QuizResponseMapType,
		ReviewerID:       s.Reviewer.ID,
		RevieweeID:       s.Team.ID,
		ReviewedObjectID: s.Quiz.ID,
	}
	require.NoError(t, db.Create(&s.QuizMap).Error)
	return s
}

func CreateTeam(t *testing.T, db *gorm.DB, name string, assignmentID uint) model.Team {
	t.Helper()
	team := model.Team{Name: name, ParentID: assignmentID}
	require.NoError(t, db.Create(&team).Error)
	return team
}

func CreateQuiz(t *testing.T, db *gorm.DB, teamID uint, name string) model.Questionnaire {
	t.Helper()
	q := model.Questionnaire{Name: name, InstructorID: teamID, Type: model.QuizQuestionnaireType}
	require.NoError(t, db.Create(&q).Error)
	return q
}

// CreateQuestion 选项按字典序写入，保证 id 顺序稳定
func CreateQuestion(t *testing.T, db *gorm.DB, questionnaireID uint, qt model.QuestionType, seq int, choices map[string]bool) model.Question {
	t.Helper()
	q := model.Question{QuestionnaireID: questionnaireID, Txt: string(qt) + " question", Type: qt, Seq: seq}
	require.NoError(t, db.Create(&q).Error)

	for _, txt := range sortedKeys(choices) {
		c := model.QuizQuestionChoice{QuestionID: q.ID, Txt: txt, IsCorrect: choices[txt]}
		require.NoError(t, db.Create(&c).Error)
		q.Choices = append(q.Choices, c)
	}
	return q
}

func CreateReviewMap(t *testing.T, db *gorm.DB, reviewerID, teamID uint) model.ResponseMap {
	t.Helper()
	m := model.ResponseMap{
		Type:             model.ReviewResponseMapType,
		ReviewerID:       reviewerID,
		RevieweeID:       teamID,
		ReviewedObjectID: teamID,
	}
	require.NoError(t, db.Create(&m).Error)
	return m
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
