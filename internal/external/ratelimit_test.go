package external

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"weatherplugin/internal/types"
)

type mockDirectory struct {
	mock.Mock
}

func (m *mockDirectory) LookupCity(ctx context.Context, location string, apiKey types.SecretString) (*types.CityRecord, error) {
	args := m.Called(ctx, location, apiKey)
	city, _ := args.Get(0).(*types.CityRecord)
	return city, args.Error(1)
}

func TestRateLimitedDirectory_Delegates(t *testing.T) {
	next := new(mockDirectory)
	want := &types.CityRecord{Name: "北京"}
	next.On("LookupCity", mock.Anything, "北京", types.SecretString("k")).Return(want, nil).Once()

	got, err := NewRateLimitedDirectory(next, 10, 1).LookupCity(context.Background(), "北京", "k")
	require.NoError(t, err)
	assert.Same(t, want, got)
	next.AssertExpectations(t)
}

func TestRateLimitedDirectory_DeadlineExceeded(t *testing.T) {
	next := new(mockDirectory)
	next.On("LookupCity", mock.Anything, mock.Anything, mock.Anything).Return(&types.CityRecord{}, nil).Once()

	dir := NewRateLimitedDirectory(next, 0.001, 1)
	_, err := dir.LookupCity(context.Background(), "a", "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = dir.LookupCity(ctx, "b", "k")
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeUpstreamRateLimited, asAppError(t, err).Code)
	next.AssertNumberOfCalls(t, "LookupCity", 1)
}
