package checks

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"salary-tracker/core/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticLister struct {
	names []string
	err   error
}

func (s staticLister) List(ctx context.Context, seriesID string) ([]string, error) {
	return s.names, s.err
}

const archivedPayload = `{"status":"REQUEST_SUCCEEDED","message":[],"Results":{"series":[{"seriesID":"CUUR0000SA0","data":[
	{"year":"2024","period":"M01","value":"310.326"},
	{"year":"2023","period":"M13","value":"304.702"},
	{"year":"2023","period":"M01","value":"299.170"}]}]}}`

func TestCheckArchive(t *testing.T) {
	ctx := context.Background()

	t.Run("Empty", func(t *testing.T) {
		report, err := CheckArchive(ctx, new(mocks.Client), "b", staticLister{}, "CUUR0000SA0", zap.NewNop())
		require.NoError(t, err)
		assert.Equal(t, "empty", report.Status)
		assert.Equal(t, 0, report.Objects)
	})

	t.Run("Latest Decodes", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("GetObject", mock.Anything, "b", "series/CUUR0000SA0/2.json", mock.Anything).
			Return(io.NopCloser(strings.NewReader(archivedPayload)), nil)

		lister := staticLister{names: []string{"series/CUUR0000SA0/1.json", "series/CUUR0000SA0/2.json"}}
		report, err := CheckArchive(ctx, mockClient, "b", lister, "CUUR0000SA0", zap.NewNop())
		require.NoError(t, err)
		assert.Equal(t, "ok", report.Status)
		assert.Equal(t, 2, report.Objects)
		assert.Equal(t, "series/CUUR0000SA0/2.json", report.Latest)
		assert.Equal(t, 2, report.Points)
	})

	t.Run("Corrupt", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("GetObject", mock.Anything, "b", "series/X/1.json", mock.Anything).
			Return(io.NopCloser(strings.NewReader(`{"status":"REQUEST_SUCCEEDED"}`)), nil)

		report, err := CheckArchive(ctx, mockClient, "b", staticLister{names: []string{"series/X/1.json"}}, "X", zap.NewNop())
		require.NoError(t, err)
		assert.Equal(t, "error", report.Status)
		assert.NotEmpty(t, report.Error)
	})

	t.Run("List Fails", func(t *testing.T) {
		_, err := CheckArchive(ctx, new(mocks.Client), "b", staticLister{err: errors.New("denied")}, "X", zap.NewNop())
		assert.ErrorContains(t, err, "denied")
	})
}
