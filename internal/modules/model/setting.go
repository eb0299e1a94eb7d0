package model

import "time"

// Setting is the singleton row of runtime-tunable configuration: provider
// selection, credentials and generation defaults. Nil pointer fields mean
// "no override, fall back to the environment".
type Setting struct {
	ID int `gorm:"primaryKey" json:"-"`

	AIProviderFormat string  `gorm:"type:varchar(20);not null;default:'gemini'" json:"ai_provider_format"`
	APIBaseURL       *string `gorm:"type:varchar(500)" json:"api_base_url"`
	APIKey           *string `gorm:"type:varchar(500)" json:"api_key"`
	SeedreamAPIKey   *string `gorm:"type:varchar(500)" json:"seedream_api_key"`

	TextModel    *string `gorm:"type:varchar(200)" json:"text_model"`
	ImageModel   *string `gorm:"type:varchar(200)" json:"image_model"`
	CaptionModel *string `gorm:"type:varchar(200)" json:"image_caption_model"`

	OutputLanguage   string `gorm:"type:varchar(10);not null;default:'zh'" json:"output_language"`
	ImageResolution  string `gorm:"type:varchar(20);not null;default:'2K'" json:"image_resolution"`
	ImageAspectRatio string `gorm:"type:varchar(10);not null;default:'16:9'" json:"image_aspect_ratio"`

	// Pool sizes are read at startup; a changed value applies on the
	// next boot.
	MaxDescriptionWorkers int `gorm:"not null;default:3" json:"max_description_workers"`
	MaxImageWorkers       int `gorm:"not null;default:3" json:"max_image_workers"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Setting) TableName() string { return "settings" }
