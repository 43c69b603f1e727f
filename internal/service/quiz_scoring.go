package service

import (
	"errors"
	"fmt"
	"peer_quiz_backend/internal/model"
	"peer_quiz_backend/internal/util"
)

var ErrIncompleteSubmission = errors.New("incomplete submission")

// IncompleteSubmissionError 至少一道题未作答，整份提交作废
type IncompleteSubmissionError struct {
	Unanswered []uint
}

func (e *IncompleteSubmissionError) Error() string {
	return fmt.Sprintf("incomplete submission: %d question(s) unanswered", len(e.Unanswered))
}

func (e *IncompleteSubmissionError) Is(target error) bool {
	return target == ErrIncompleteSubmission
}

// ScoreSubmission 按题型逐题评分。任一题未作答时返回 IncompleteSubmissionError 且不返回任何答案
func ScoreSubmission(questions []model.Question, raw model.RawAnswers, responseID uint) ([]model.Answer, error) {
	answers := make([]model.Answer, 0, len(questions))
	var unanswered []uint

	for i := range questions {
		q := &questions[i]
		var (
			graded   []model.Answer
			answered bool
			err      error
		)
		switch q.Type {
		case model.SingleChoice, model.TrueFalse:
			graded, answered, err = scoreSingleAnswer(q, raw[q.ID], responseID)
		case model.MultipleChoiceCheckbox:
			graded, answered = scoreMultipleAnswer(q, raw[q.ID], responseID)
		default:
			return nil, &model.ErrUnsupportedQuestionType{Type: string(q.Type)}
		}
		if err != nil {
			return nil, err
		}
		if !answered {
			unanswered = append(unanswered, q.ID)
			continue
		}
		answers = append(answers, graded...)
	}

	if len(unanswered) > 0 {
		return nil, &IncompleteSubmissionError{Unanswered: unanswered}
	}
	return answers, nil
}

// scoreSingleAnswer 单选/判断：与唯一正确选项文本逐字比较（区分大小写）
func scoreSingleAnswer(q *model.Question, value model.AnswerValue, responseID uint) ([]model.Answer, bool, error) {
	correct := q.CorrectChoices()
	if len(correct) == 0 {
		return nil, false, fmt.Errorf("question %d: %w", q.ID, util.ErrInvalidAnswerKey)
	}

	text := value.SingleText()
	if text == "" {
		return nil, false, nil
	}

	score := 0
	if text == correct[0].Txt {
		score = 1
	}
	return []model.Answer{{
		ResponseID: responseID,
		QuestionID: q.ID,
		Comments:   text,
		Answer:     score,
	}}, true, nil
}

// scoreMultipleAnswer 多选：命中数必须同时等于正确项数和提交项数才得 1 分。
// 提交中重复的正确项会被重复计数，因此重复提交必然得 0 分
func scoreMultipleAnswer(q *model.Question, value model.AnswerValue, responseID uint) ([]model.Answer, bool) {
	submitted := value.List()
	if len(submitted) == 0 {
		return nil, false
	}

	correct := q.CorrectChoices()
	matchCount := 0
	for _, choice := range submitted {
		if choice == "" {
			return nil, false
		}
		for _, c := range correct {
			if choice == c.Txt {
				matchCount++
			}
		}
	}

	score := 0
	if matchCount == len(correct) && matchCount == len(submitted) {
		score = 1
	}

	answers := make([]model.Answer, 0, len(submitted))
	for _, choice := range submitted {
		answers = append(answers, model.Answer{
			ResponseID: responseID,
			QuestionID: q.ID,
			Comments:   choice,
			Answer:     score,
		})
	}
	return answers, true
}

// QuizScore 答对题数占比（百分制，保留两位小数）。多选题所有答案均为 1 才算答对
func QuizScore(questions []model.Question, answers []model.Answer) float64 {
	if len(questions) == 0 {
		return 0
	}
	byQuestion := make(map[uint][]model.Answer, len(questions))
	for _, a := range answers {
		byQuestion[a.QuestionID] = append(byQuestion[a.QuestionID], a)
	}

	correct := 0
	for _, q := range questions {
		as := byQuestion[q.ID]
		if len(as) == 0 {
			continue
		}
		ok := true
		for _, a := range as {
			if a.Answer != 1 {
				ok = false
				break
			}
		}
		if ok {
			correct++
		}
	}
	pct := float64(correct) * 100 / float64(len(questions))
	return float64(int64(pct*100+0.5)) / 100
}
