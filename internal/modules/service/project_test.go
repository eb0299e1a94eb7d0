package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xobi-ai/xobi/internal/infra/blob"
	"github.com/xobi-ai/xobi/internal/modules/model"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

func newProjectFixture() (ProjectService, *mockProjectRepo, *mockPageRepo) {
	projects := new(mockProjectRepo)
	pages := new(mockPageRepo)
	svc := NewProjectService(testConfig(), zap.NewNop(), projects, pages, &blob.S3Deps{})
	return svc, projects, pages
}

func TestProjectCreate_RequiredInputPerCreationType(t *testing.T) {
	svc, _, _ := newProjectFixture()

	cases := []struct {
		name string
		in   CreateProjectInput
	}{
		{"idea without prompt", CreateProjectInput{CreationType: model.CreationTypeIdea}},
		{"ecom without prompt", CreateProjectInput{CreationType: model.CreationTypeEcom}},
		{"outline without text", CreateProjectInput{CreationType: model.CreationTypeOutline}},
		{"description without text", CreateProjectInput{CreationType: model.CreationTypeDescription}},
		{"unknown type", CreateProjectInput{CreationType: "magic", IdeaPrompt: "x"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestProjectCreate_AppliesRatioDefaults(t *testing.T) {
	svc, projects, _ := newProjectFixture()
	projects.On("Create", mock.Anything, mock.Anything).Return(nil)

	p, err := svc.Create(context.Background(), CreateProjectInput{
		CreationType: model.CreationTypeIdea,
		IdeaPrompt:   "保温杯",
	})
	require.NoError(t, err)
	assert.Equal(t, "3:4", p.PageAspectRatio)
	assert.Equal(t, "1:1", p.CoverAspectRatio)
	assert.Equal(t, model.ProjectStatusDraft, p.Status)
}

func TestProjectCreate_NormalizesRatios(t *testing.T) {
	svc, projects, _ := newProjectFixture()
	projects.On("Create", mock.Anything, mock.Anything).Return(nil)

	p, err := svc.Create(context.Background(), CreateProjectInput{
		CreationType:     model.CreationTypeIdea,
		IdeaPrompt:       "保温杯",
		PageAspectRatio:  " 9 : 16 ",
		CoverAspectRatio: "16:9",
	})
	require.NoError(t, err)
	assert.Equal(t, "9:16", p.PageAspectRatio)
	assert.Equal(t, "16:9", p.CoverAspectRatio)
}

func TestProjectCreate_RejectsBadRatio(t *testing.T) {
	svc, _, _ := newProjectFixture()

	_, err := svc.Create(context.Background(), CreateProjectInput{
		CreationType:    model.CreationTypeIdea,
		IdeaPrompt:      "保温杯",
		PageAspectRatio: "wide",
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestProjectCreate_OutlineTypeCreatesPagesSynchronously(t *testing.T) {
	svc, projects, pages := newProjectFixture()
	projects.On("Create", mock.Anything, mock.Anything).Return(nil)
	pages.On("CreateBatch", mock.Anything, mock.MatchedBy(func(ps []model.Page) bool {
		return len(ps) == 3 && ps[0].OrderIndex == 0 && ps[2].OrderIndex == 2
	})).Return(nil)

	p, err := svc.Create(context.Background(), CreateProjectInput{
		CreationType: model.CreationTypeOutline,
		OutlineText:  "1. 封面\n2. 核心卖点\n\n- 使用场景",
	})
	require.NoError(t, err)
	assert.Equal(t, model.ProjectStatusOutlineGenerated, p.Status)
	assert.Len(t, p.Pages, 3)
	pages.AssertExpectations(t)
}

func TestProjectGet_DerivesStatusFromPages(t *testing.T) {
	svc, projects, _ := newProjectFixture()
	id := uuid.New()

	described := datatypes.JSON([]byte(`{"text":"文案"}`))
	projects.On("GetWithPages", mock.Anything, id).Return(&model.Project{
		ID:     id,
		Status: model.ProjectStatusDraft, // stale stored value
		Pages: []model.Page{
			{DescriptionContent: described},
			{DescriptionContent: described},
		},
	}, nil).Once()

	got, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, model.ProjectStatusDescriptionsGenerated, got.Status)
}
