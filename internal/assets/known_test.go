package assets

import (
	"context"
	"errors"
	"testing"

	"crypto-news-bot/internal/types"

	"github.com/stretchr/testify/require"
)

type listerFunc func(ctx context.Context) ([]types.AssetID, error)

func (f listerFunc) KnownAssets(ctx context.Context) ([]types.AssetID, error) {
	return f(ctx)
}

func TestLoad(t *testing.T) {
	known := Load(context.Background(), listerFunc(func(context.Context) ([]types.AssetID, error) {
		return []types.AssetID{"Bitcoin", " ethereum ", ""}, nil
	}))

	require.Equal(t, 2, known.Len())
	require.True(t, known.Contains("bitcoin"))
	require.True(t, known.Contains("ethereum"))
	require.False(t, known.Contains("dogecoin"))
}

func TestLoad_ProviderFailureRejectsEverything(t *testing.T) {
	known := Load(context.Background(), listerFunc(func(context.Context) ([]types.AssetID, error) {
		return nil, errors.New("boom")
	}))

	require.Zero(t, known.Len())
	require.False(t, known.Contains("bitcoin"))
}
