package model

import (
	"time"

	"gorm.io/gorm"
)

// Project 巡检项目，工程树的根.
type Project struct {
	ID   string `gorm:"primaryKey;size:36" json:"id"`
	Name string `gorm:"size:255;index"     json:"name"`
	// Address 项目地址
	Address     string `gorm:"size:512" json:"address"`
	Description string `gorm:"type:text" json:"description"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Building 建筑单体.
type Building struct {
	ID        string `gorm:"primaryKey;size:36" json:"id"`
	ProjectID string `gorm:"size:36;index"      json:"project_id"`
	Name      string `gorm:"size:255"           json:"name"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Zone 建筑内的分区或楼层.
type Zone struct {
	ID         string `gorm:"primaryKey;size:36" json:"id"`
	BuildingID string `gorm:"size:36;index"      json:"building_id"`
	Name       string `gorm:"size:255"           json:"name"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// System 机电系统（暖通、给排水、供配电等）.
type System struct {
	ID        string `gorm:"primaryKey;size:36" json:"id"`
	ProjectID string `gorm:"size:36;index"      json:"project_id"`
	Name      string `gorm:"size:255"           json:"name"`
	// Kind 系统类别，如 hvac / lighting / water
	Kind string `gorm:"size:64;index" json:"kind"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Device 具体设备，可挂到系统与分区.
type Device struct {
	ID       string `gorm:"primaryKey;size:36" json:"id"`
	SystemID string `gorm:"size:36;index"      json:"system_id"`
	ZoneID   string `gorm:"size:36;index"      json:"zone_id"`
	Name     string `gorm:"size:255"           json:"name"`
	// Model 设备型号，通常由铭牌解析回填
	Model string `gorm:"size:255" json:"model"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AllModels 返回需要自动迁移的全部模型.
func AllModels() []any {
	return []any{
		&Project{},
		&Building{},
		&Zone{},
		&System{},
		&Device{},
		&Asset{},
		&FileBlob{},
		&AssetStructuredPayload{},
	}
}
