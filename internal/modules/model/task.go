package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Task statuses. Transitions are one-directional:
// PENDING -> PROCESSING -> {COMPLETED | FAILED}.
const (
	TaskStatusPending    = "PENDING"
	TaskStatusProcessing = "PROCESSING"
	TaskStatusCompleted  = "COMPLETED"
	TaskStatusFailed     = "FAILED"
)

// Task types.
const (
	TaskTypeGenerateOutline      = "GENERATE_OUTLINE"
	TaskTypeGenerateDescriptions = "GENERATE_DESCRIPTIONS"
	TaskTypeGenerateImages       = "GENERATE_IMAGES"
	TaskTypeGenerateSingleImage  = "GENERATE_SINGLE_IMAGE"
	TaskTypeGenerateMaterial     = "GENERATE_MATERIAL"
	TaskTypeCaptionImage         = "CAPTION_IMAGE"
	TaskTypeParseFile            = "PARSE_FILE"
)

// Progress is the batch accounting object stored on every task.
// Completed+Failed never exceeds Total. Extra carries task-specific fields
// such as material_id or image_url.
type Progress struct {
	Total     int            `json:"total"`
	Completed int            `json:"completed"`
	Failed    int            `json:"failed"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// Terminal reports whether every unit has been accounted for.
func (p Progress) Terminal() bool { return p.Completed+p.Failed >= p.Total }

type Task struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"task_id"`

	// uuid.Nil scopes the task globally (e.g. material generation without a
	// project). Tasks are retained for audit and never deleted.
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index:ix_tasks_project_id" json:"project_id"`

	TaskType string `gorm:"type:varchar(50);not null" json:"task_type"`
	Status   string `gorm:"type:varchar(50);not null;default:'PENDING';check:status IN ('PENDING','PROCESSING','COMPLETED','FAILED')" json:"status"`

	Progress     datatypes.JSONType[Progress] `gorm:"type:jsonb" swaggertype:"object" json:"progress"`
	Result       datatypes.JSONMap            `gorm:"type:jsonb" swaggertype:"object" json:"result,omitempty"`
	ErrorMessage string                       `gorm:"type:text" json:"error_message,omitempty"`

	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (Task) TableName() string { return "tasks" }

// IsTerminal reports whether the task has reached COMPLETED or FAILED.
func (t *Task) IsTerminal() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusFailed
}
