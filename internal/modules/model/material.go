package model

import (
	"time"

	"github.com/google/uuid"
)

// Material sources.
const (
	MaterialSourceUpload    = "upload"
	MaterialSourceGenerated = "generated"
)

// Material is an uploaded or AI-generated image usable as generation input.
// Immutable once stored except for the caption fields. May be shared across
// projects through the project_materials join table.
type Material struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`

	Filename  string `gorm:"type:varchar(500);not null" json:"filename"`
	ObjectKey string `gorm:"type:text;not null" json:"-"`
	URL       string `gorm:"-" json:"url,omitempty"`
	MIME      string `gorm:"type:varchar(100)" json:"mime,omitempty"`
	SizeB     int64  `gorm:"type:bigint" json:"size_b,omitempty"`
	Source    string `gorm:"type:varchar(20);not null;default:'upload'" json:"source"`

	Caption       string `gorm:"type:text" json:"caption,omitempty"`
	CaptionStatus string `gorm:"type:varchar(20)" json:"caption_status,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Material <-> Project
	Projects []Project `gorm:"many2many:project_materials;" json:"-"`
}

func (Material) TableName() string { return "materials" }
