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
)

func newMaterialFixture() (MaterialService, *mockMaterialRepo, *mockProjectRepo) {
	materials := new(mockMaterialRepo)
	projects := new(mockProjectRepo)
	svc := NewMaterialService(testConfig(), zap.NewNop(), materials, projects, &blob.S3Deps{})
	return svc, materials, projects
}

func TestMaterialList_ScopeRouting(t *testing.T) {
	svc, materials, _ := newMaterialFixture()
	projectID := uuid.New()

	materials.On("ListAll", mock.Anything).Return([]model.Material{}, nil).Twice()
	materials.On("ListUnassociated", mock.Anything).Return([]model.Material{}, nil).Twice()
	materials.On("ListByProject", mock.Anything, projectID).Return([]model.Material{}, nil).Once()

	for _, scope := range []string{"", ScopeAll} {
		_, err := svc.List(context.Background(), scope)
		require.NoError(t, err, scope)
	}
	for _, scope := range []string{ScopeUnassociated, "global"} {
		_, err := svc.List(context.Background(), scope)
		require.NoError(t, err, scope)
	}
	_, err := svc.List(context.Background(), projectID.String())
	require.NoError(t, err)

	materials.AssertExpectations(t)
}

func TestMaterialList_RejectsBadScope(t *testing.T) {
	svc, _, _ := newMaterialFixture()

	_, err := svc.List(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestMaterialAssociate_ChecksBothSides(t *testing.T) {
	svc, materials, projects := newMaterialFixture()
	projectID, materialID := uuid.New(), uuid.New()

	projects.On("Get", mock.Anything, projectID).Return(&model.Project{ID: projectID}, nil)
	materials.On("Get", mock.Anything, materialID).Return(&model.Material{ID: materialID}, nil)
	materials.On("Associate", mock.Anything, projectID, materialID).Return(nil)

	err := svc.Associate(context.Background(), projectID, materialID)
	require.NoError(t, err)
	materials.AssertExpectations(t)
}
