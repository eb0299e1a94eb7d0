package model

import (
	"time"

	"github.com/google/uuid"
)

// Parse statuses for reference files.
const (
	ParseStatusPending   = "pending"
	ParseStatusParsing   = "parsing"
	ParseStatusCompleted = "completed"
	ParseStatusFailed    = "failed"
)

// ReferenceFile is an uploaded document parsed into markdown for use as
// generation input. project_id is nullable: files may be global.
type ReferenceFile struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID *uuid.UUID `gorm:"type:uuid;index" json:"project_id,omitempty"`

	Filename  string `gorm:"type:varchar(500);not null" json:"filename"`
	ObjectKey string `gorm:"type:text;not null" json:"-"`
	SizeB     int64  `gorm:"type:bigint;not null" json:"file_size"`
	FileType  string `gorm:"type:varchar(50);not null" json:"file_type"`

	ParseStatus     string `gorm:"type:varchar(50);not null;default:'pending'" json:"parse_status"`
	MarkdownContent string `gorm:"type:text" json:"markdown_content,omitempty"`
	ErrorMessage    string `gorm:"type:text" json:"error_message,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// ReferenceFile <-> Project
	Project *Project `gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:SET NULL,OnUpdate:CASCADE;" json:"-"`
}

func (ReferenceFile) TableName() string { return "reference_files" }
