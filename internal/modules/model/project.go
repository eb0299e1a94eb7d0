package model

import (
	"time"

	"github.com/google/uuid"
)

// Project statuses. The stored column is a cached convenience; the service
// layer re-derives it from page aggregate state on every read that matters.
const (
	ProjectStatusDraft                 = "DRAFT"
	ProjectStatusOutlineGenerated      = "OUTLINE_GENERATED"
	ProjectStatusDescriptionsGenerated = "DESCRIPTIONS_GENERATED"
	ProjectStatusCompleted             = "COMPLETED"
)

// Creation types accepted on project creation.
const (
	CreationTypeIdea        = "idea"
	CreationTypeOutline     = "outline"
	CreationTypeDescription = "description"
	CreationTypeEcom        = "ecom"
)

type Project struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"project_id"`
	CreationType string    `gorm:"type:varchar(20);not null" json:"creation_type"`

	IdeaPrompt        string `gorm:"type:text" json:"idea_prompt"`
	OutlineText       string `gorm:"type:text" json:"outline_text"`
	DescriptionText   string `gorm:"type:text" json:"description_text"`
	ExtraRequirements string `gorm:"type:text" json:"extra_requirements"`

	PageAspectRatio  string `gorm:"type:varchar(20);not null;default:'3:4'" json:"page_aspect_ratio"`
	CoverAspectRatio string `gorm:"type:varchar(20);not null;default:'1:1'" json:"cover_aspect_ratio"`
	ImageModel       string `gorm:"type:varchar(100)" json:"image_model"`

	TemplateImageKey string `gorm:"type:text" json:"-"`
	TemplateImageURL string `gorm:"-" json:"template_image_url,omitempty"`

	Status string `gorm:"type:varchar(50);not null;default:'DRAFT'" json:"status"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Project <-> Page
	Pages []Page `gorm:"constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"pages,omitempty"`

	// Project <-> Task
	Tasks []Task `gorm:"constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`

	// Project <-> Material. Association only: deleting a project removes
	// rows from the join table, never the materials themselves.
	Materials []Material `gorm:"many2many:project_materials;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`
}

func (Project) TableName() string { return "projects" }

type ProjectMaterial struct {
	ProjectID  uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"project_id"`
	MaterialID uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"material_id"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	Project  Project  `gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"project"`
	Material Material `gorm:"foreignKey:MaterialID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"material"`
}

func (ProjectMaterial) TableName() string { return "project_materials" }

// DerivedStatus computes the project stage from its pages. It never reports
// a bulk stage further along than the least-advanced page.
func DerivedStatus(pages []Page) string {
	if len(pages) == 0 {
		return ProjectStatusDraft
	}

	allDescribed := true
	allImaged := true
	for i := range pages {
		if len(pages[i].DescriptionContent) == 0 {
			allDescribed = false
		}
		if pages[i].GeneratedImageKey == "" {
			allImaged = false
		}
	}

	switch {
	case allImaged:
		return ProjectStatusCompleted
	case allDescribed:
		return ProjectStatusDescriptionsGenerated
	default:
		return ProjectStatusOutlineGenerated
	}
}
