package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Page statuses. The only back-edge is FAILED/COMPLETED -> GENERATING and it
// is always user-initiated.
const (
	PageStatusDraft                = "DRAFT"
	PageStatusDescriptionGenerated = "DESCRIPTION_GENERATED"
	PageStatusGenerating           = "GENERATING"
	PageStatusCompleted            = "COMPLETED"
	PageStatusFailed               = "FAILED"
)

type Page struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"page_id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index:ix_pages_project_id;uniqueIndex:uq_project_order,priority:1" json:"project_id"`

	OrderIndex int    `gorm:"not null;uniqueIndex:uq_project_order,priority:2" json:"order_index"`
	Part       string `gorm:"type:varchar(200)" json:"part,omitempty"`

	// Empty string means "use the project default ratio".
	AspectRatio string `gorm:"type:varchar(20)" json:"aspect_ratio"`

	OutlineContent     datatypes.JSON `gorm:"type:jsonb" swaggertype:"object" json:"outline_content,omitempty"`
	DescriptionContent datatypes.JSON `gorm:"type:jsonb" swaggertype:"object" json:"description_content,omitempty"`

	GeneratedImageKey string `gorm:"type:text" json:"-"`
	GeneratedImageURL string `gorm:"-" json:"generated_image_url,omitempty"`

	Status    string `gorm:"type:varchar(50);not null;default:'DRAFT'" json:"status"`
	LastError string `gorm:"type:text" json:"last_error,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Page <-> Project
	Project *Project `gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`

	// Page <-> PageImageVersion
	ImageVersions []PageImageVersion `gorm:"constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"image_versions,omitempty"`
}

func (Page) TableName() string { return "pages" }

type PageImageVersion struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PageID uuid.UUID `gorm:"type:uuid;not null;index:ix_page_image_versions_page_id;uniqueIndex:uq_page_version,priority:1" json:"page_id"`

	ImageKey      string `gorm:"type:text;not null" json:"-"`
	ImageURL      string `gorm:"-" json:"image_url,omitempty"`
	VersionNumber int    `gorm:"not null;uniqueIndex:uq_page_version,priority:2" json:"version_number"`
	IsCurrent     bool   `gorm:"not null;default:false" json:"is_current"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// PageImageVersion <-> Page
	Page *Page `gorm:"foreignKey:PageID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`
}

func (PageImageVersion) TableName() string { return "page_image_versions" }
