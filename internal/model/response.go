package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"
)

const (
	ReviewResponseMapType = "ReviewResponseMap"
	QuizResponseMapType   = "QuizResponseMap"
)

// swagger:model ResponseMap
type ResponseMap struct {
	BaseModel
	Type             string `gorm:"size:50;index;not null" json:"type"`
	ReviewerID       uint   `gorm:"index;not null" json:"reviewerId"`  // participant
	RevieweeID       uint   `gorm:"index;not null" json:"revieweeId"`  // team
	ReviewedObjectID uint   `gorm:"index" json:"reviewedObjectId"`     // 测验映射中为问卷 ID
}

func (ResponseMap) TableName() string {
	return "response_maps"
}

// Response 一次答题记录。map_id 唯一，同一映射最多一条
//
// swagger:model Response
type Response struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	MapID     uint      `gorm:"uniqueIndex;not null" json:"mapId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Response) TableName() string {
	return "responses"
}

// swagger:model Answer
type Answer struct {
	ID         uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	ResponseID uint   `gorm:"index;not null" json:"responseId"`
	QuestionID uint   `gorm:"index;not null" json:"questionId"`
	Comments   string `gorm:"type:text" json:"comments"` // 提交的选项文本
	Answer     int    `gorm:"not null;default:0" json:"answer"` // 得分 0 或 1
}

func (Answer) TableName() string {
	return "answers"
}

// AnswerValue 单选/判断题为一个字符串，多选题为字符串数组
type AnswerValue struct {
	Text    string
	Choices []string
	IsList  bool
}

func SingleValue(text string) AnswerValue {
	return AnswerValue{Text: text}
}

func ListValue(choices ...string) AnswerValue {
	return AnswerValue{Choices: choices, IsList: true}
}

func (v *AnswerValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = AnswerValue{}
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return errors.New("answer must be a string or a list of strings")
		}
		*v = ListValue(list...)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.New("answer must be a string or a list of strings")
	}
	*v = SingleValue(s)
	return nil
}

func (v AnswerValue) MarshalJSON() ([]byte, error) {
	if v.IsList {
		if v.Choices == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.Choices)
	}
	return json.Marshal(v.Text)
}

// SingleText 单选题读取的文本；只含一个元素的数组视为同一文本
func (v AnswerValue) SingleText() string {
	if !v.IsList {
		return v.Text
	}
	if len(v.Choices) == 1 {
		return v.Choices[0]
	}
	return ""
}

// List 多选题读取的列表；单个字符串视为只勾选了一项
func (v AnswerValue) List() []string {
	if v.IsList {
		return v.Choices
	}
	if v.Text == "" {
		return nil
	}
	return []string{v.Text}
}

// RawAnswers 题目 ID -> 提交值
type RawAnswers map[uint]AnswerValue
