package util

import "errors"

var (
	ErrNotFound              = errors.New("not found")
	ErrResponseMapNotFound   = errors.New("response map not found")
	ErrQuestionnaireNotFound = errors.New("questionnaire not found")
	ErrParticipantNotFound   = errors.New("participant not found")
	ErrTeamNotFound          = errors.New("team not found")
	ErrAttemptNotFound       = errors.New("attempt not found")
	ErrInvalidAnswerKey      = errors.New("question has no correct choice")
	ErrLockTimeout           = errors.New("submission lock wait timeout")
	ErrNotQuizQuestionnaire  = errors.New("questionnaire is not a quiz")
	ErrQuizNotInAssignment   = errors.New("quiz does not belong to the reviewer's assignment")
)

// NotFoundError 包装具体的不存在错误，使 errors.Is(err, ErrNotFound) 成立
type NotFoundError struct {
	Err error
	ID  uint
}

func (e *NotFoundError) Error() string {
	return e.Err.Error()
}

func (e *NotFoundError) Unwrap() []error {
	return []error{e.Err, ErrNotFound}
}

func NewNotFound(err error, id uint) error {
	return &NotFoundError{Err: err, ID: id}
}
