package model

// swagger:model Participant
type Participant struct {
	BaseModel
	UserID   uint   `gorm:"index:idx_participant_user_parent,unique;not null" json:"userId"`
	ParentID uint   `gorm:"index:idx_participant_user_parent,unique;not null" json:"assignmentId"`
	Handle   string `gorm:"size:100" json:"handle"`
}

func (Participant) TableName() string {
	return "participants"
}

// swagger:model Team
type Team struct {
	BaseModel
	Name     string `gorm:"size:255;not null" json:"name"`
	ParentID uint   `gorm:"index;not null" json:"assignmentId"` // 所属作业
}

func (Team) TableName() string {
	return "teams"
}
