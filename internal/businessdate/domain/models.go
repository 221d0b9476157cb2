package domain

import "time"

// SingletonID is the primary key of the only business date row.
const SingletonID int64 = 1

// BusinessDate is the hotel's operating day. It advances only through the
// night audit or an explicit operator correction.
type BusinessDate struct {
	ID              int64      `gorm:"primaryKey;autoIncrement:false" json:"-"`
	Date            time.Time  `gorm:"column:business_date;type:date;not null" json:"business_date"`
	LastAuditAt     *time.Time `json:"last_audit_at,omitempty"`
	LastAuditUserID string     `gorm:"type:varchar(64)" json:"last_audit_user_id,omitempty"`
	CreatedAt       time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"not null" json:"updated_at"`
}

func (BusinessDate) TableName() string {
	return "business_dates"
}
