package models

import (
	"time"

	"gorm.io/datatypes"
)

// CushionKitID is the only id the cushion_kit table accepts.
const CushionKitID = 1

// CushionKit is the singleton configuration of the cushion-cover bundle.
type CushionKit struct {
	ID        uint           `gorm:"primaryKey;autoIncrement:false;check:chk_cushion_kit_singleton,id = 1" json:"-"`
	Config    datatypes.JSON `gorm:"not null" json:"config"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (CushionKit) TableName() string { return "cushion_kit" }
