package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	ActorTypeOperator = "operator"
	ActorTypeSystem   = "system"
)

// ActivityLog records one state-changing action taken by an operator or the
// scheduler.
type ActivityLog struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	ActorType  string            `gorm:"type:varchar(16);not null" json:"actor_type"`
	ActorID    *string           `gorm:"type:varchar(64);index" json:"actor_id,omitempty"`
	Action     string            `gorm:"type:varchar(64);not null;index" json:"action"`
	TargetType string            `gorm:"type:varchar(32);not null" json:"target_type"`
	TargetID   *string           `gorm:"type:varchar(64)" json:"target_id,omitempty"`
	RequestID  *string           `gorm:"type:varchar(64)" json:"request_id,omitempty"`
	Metadata   datatypes.JSONMap `json:"metadata"`
	CreatedAt  time.Time         `gorm:"not null;index" json:"created_at"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}

type ListFilter struct {
	Action     string
	TargetType string
	TargetID   string
	ActorID    string
	StartAt    *time.Time
	EndAt      *time.Time
	Cursor     *Cursor
	Limit      int
}

type Cursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}
