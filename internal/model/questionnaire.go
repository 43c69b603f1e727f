package model

import (
	"fmt"
)

const QuizQuestionnaireType = "QuizQuestionnaire"

// QuestionType 题型，仅允许下列取值
type QuestionType string

const (
	SingleChoice           QuestionType = "MultipleChoiceRadio"
	TrueFalse              QuestionType = "TrueFalse"
	MultipleChoiceCheckbox QuestionType = "MultipleChoiceCheckbox"
)

// ErrUnsupportedQuestionType 题库中出现了未知题型
type ErrUnsupportedQuestionType struct {
	Type string
}

func (e *ErrUnsupportedQuestionType) Error() string {
	return fmt.Sprintf("unsupported question type %q", e.Type)
}

func ParseQuestionType(s string) (QuestionType, error) {
	switch t := QuestionType(s); t {
	case SingleChoice, TrueFalse, MultipleChoiceCheckbox:
		return t, nil
	default:
		return "", &ErrUnsupportedQuestionType{Type: s}
	}
}

// swagger:model Questionnaire
type Questionnaire struct {
	BaseModel
	Name         string `gorm:"size:255;not null" json:"name"`
	InstructorID uint   `gorm:"index;not null" json:"instructorId"` // 测验问卷为出题团队 ID
	Type         string `gorm:"size:50;not null;default:'QuizQuestionnaire'" json:"type"`
}

func (Questionnaire) TableName() string {
	return "questionnaires"
}

// swagger:model Question
type Question struct {
	BaseModel
	QuestionnaireID uint                 `gorm:"index;not null" json:"questionnaireId"`
	Txt             string               `gorm:"type:text;not null" json:"txt"`
	Type            QuestionType         `gorm:"size:50;not null" json:"type"`
	Seq             int                  `gorm:"default:0" json:"seq"`
	Choices         []QuizQuestionChoice `gorm:"foreignKey:QuestionID" json:"choices,omitempty"`
}

func (Question) TableName() string {
	return "questions"
}

// CorrectChoices 答案键：所有标记为正确的选项
func (q *Question) CorrectChoices() []QuizQuestionChoice {
	var out []QuizQuestionChoice
	for _, c := range q.Choices {
		if c.IsCorrect {
			out = append(out, c)
		}
	}
	return out
}

// swagger:model QuizQuestionChoice
type QuizQuestionChoice struct {
	BaseModel
	QuestionID uint   `gorm:"index;not null" json:"questionId"`
	Txt        string `gorm:"type:text;not null" json:"txt"`
	IsCorrect  bool   `gorm:"column:iscorrect;default:false" json:"-"`
}

func (QuizQuestionChoice) TableName() string {
	return "quiz_question_choices"
}
