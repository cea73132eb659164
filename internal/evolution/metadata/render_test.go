package metadata

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evonft/internal/evolution/models"
	id "evonft/pkg/domain"
	dErrors "evonft/pkg/domain-errors"
)

func TestRenderURI(t *testing.T) {
	seen := map[string]models.Stage{}
	for _, stage := range []models.Stage{models.StageInitial, models.StageIntermediate, models.StageFinal} {
		t.Run(stage.Name(), func(t *testing.T) {
			first, err := RenderURI(stage)
			require.NoError(t, err)
			second, err := RenderURI(stage)
			require.NoError(t, err)

			assert.Equal(t, first, second, "rendering must be byte-identical")
			assert.True(t, strings.HasPrefix(first, URIPrefix))
			assert.NotContains(t, first, "#")
			assert.Contains(t, first, stage.Name())

			other, dup := seen[first]
			assert.False(t, dup, "stage %d renders the same body as stage %d", stage, other)
			seen[first] = stage
		})
	}
}

func TestRenderURI_OutOfRange(t *testing.T) {
	for _, stage := range []models.Stage{0, 4, 255} {
		_, err := RenderURI(stage)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnknownAsset), "stage %d", stage)
	}
}

type stageReaderFunc func(context.Context, id.AssetID) (models.Stage, error)

func (f stageReaderFunc) GetStage(ctx context.Context, assetID id.AssetID) (models.Stage, error) {
	return f(ctx, assetID)
}

func TestService_TokenURI(t *testing.T) {
	svc, err := New(stageReaderFunc(func(_ context.Context, assetID id.AssetID) (models.Stage, error) {
		if assetID == 1 {
			return models.StageFinal, nil
		}
		return 0, dErrors.New(dErrors.CodeUnknownAsset, "asset not found")
	}))
	require.NoError(t, err)

	uri, err := svc.TokenURI(context.Background(), 1)
	require.NoError(t, err)
	want, _ := RenderURI(models.StageFinal)
	assert.Equal(t, want, uri)

	_, err = svc.TokenURI(context.Background(), 2)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnknownAsset))
}
