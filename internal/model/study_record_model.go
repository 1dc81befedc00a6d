package model

import (
	"time"

	"gorm.io/datatypes"
)

type StudyRecord struct {
	Key       string         `gorm:"type:varchar(255);primaryKey"`
	Data      datatypes.JSON `gorm:"type:jsonb;not null"`
	ExpiresAt *time.Time     `gorm:"index"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
}

func (StudyRecord) TableName() string {
	return "study_records"
}
