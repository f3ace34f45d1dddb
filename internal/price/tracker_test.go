package price

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"crypto-news-bot/internal/statefile"
	"crypto-news-bot/internal/types"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	prices map[types.AssetID]float64
	err    error
	calls  int
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Prices(_ context.Context, assets []types.AssetID) (map[types.AssetID]float64, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make(map[types.AssetID]float64)
	for _, a := range assets {
		if p, ok := s.prices[a]; ok {
			out[a] = p
		}
	}
	return out, nil
}

func (s *stubProvider) Markets(context.Context, []types.AssetID) (map[types.AssetID]types.MarketChange, error) {
	return nil, nil
}

func (s *stubProvider) KnownAssets(context.Context) ([]types.AssetID, error) {
	return nil, nil
}

func seed(t *testing.T, prices map[types.AssetID]float64) string {
	path := filepath.Join(t.TempDir(), FileName)
	if prices != nil {
		require.NoError(t, statefile.Write(path, prices))
	}
	return path
}

func readState(t *testing.T, path string) map[types.AssetID]float64 {
	out := map[types.AssetID]float64{}
	require.NoError(t, statefile.Read(path, &out))
	return out
}

var bitcoinOnly = map[types.AssetID]float64{"bitcoin": 5}

func TestTracker_AlertOnThreshold(t *testing.T) {
	path := seed(t, map[types.AssetID]float64{"bitcoin": 100})
	tracker := NewTracker(&stubProvider{prices: map[types.AssetID]float64{"bitcoin": 106}}, path, false)

	alerts := tracker.Check(context.Background(), bitcoinOnly)
	require.Len(t, alerts, 1)
	assert.Equal(t, "bitcoin", alerts[0].Asset)
	assert.Equal(t, types.Up, alerts[0].Direction)
	assert.InDelta(t, 6.0, alerts[0].Change, 1e-9)
	assert.Equal(t, 106.0, alerts[0].Price)
	assert.Equal(t, 5.0, alerts[0].Threshold)

	tracker.Commit()
	assert.Equal(t, map[types.AssetID]float64{"bitcoin": 106}, readState(t, path))
}

func TestTracker_DropIsDown(t *testing.T) {
	path := seed(t, map[types.AssetID]float64{"bitcoin": 100})
	tracker := NewTracker(&stubProvider{prices: map[types.AssetID]float64{"bitcoin": 95}}, path, false)

	alerts := tracker.Check(context.Background(), bitcoinOnly)
	require.Len(t, alerts, 1)
	assert.Equal(t, types.Down, alerts[0].Direction)
	assert.InDelta(t, -5.0, alerts[0].Change, 1e-9)
}

func TestTracker_BelowThresholdUpdatesMemoryOnly(t *testing.T) {
	path := seed(t, map[types.AssetID]float64{"bitcoin": 100})
	tracker := NewTracker(&stubProvider{prices: map[types.AssetID]float64{"bitcoin": 103}}, path, false)

	require.Empty(t, tracker.Check(context.Background(), bitcoinOnly))
	tracker.Commit()

	prev, ok := tracker.Previous("bitcoin")
	require.True(t, ok)
	assert.Equal(t, 103.0, prev)
	assert.Equal(t, map[types.AssetID]float64{"bitcoin": 100}, readState(t, path), "file only rewritten on alert")
}

func TestTracker_PersistAlways(t *testing.T) {
	path := seed(t, map[types.AssetID]float64{"bitcoin": 100})
	tracker := NewTracker(&stubProvider{prices: map[types.AssetID]float64{"bitcoin": 103}}, path, true)

	require.Empty(t, tracker.Check(context.Background(), bitcoinOnly))
	tracker.Commit()
	assert.Equal(t, map[types.AssetID]float64{"bitcoin": 103}, readState(t, path))
}

func TestTracker_FirstSightingHasNoAlert(t *testing.T) {
	path := seed(t, nil)
	provider := &stubProvider{prices: map[types.AssetID]float64{"bitcoin": 100}}
	tracker := NewTracker(provider, path, false)

	require.Empty(t, tracker.Check(context.Background(), bitcoinOnly))
	tracker.Commit()
	prev, ok := tracker.Previous("bitcoin")
	require.True(t, ok)
	assert.Equal(t, 100.0, prev)

	provider.prices["bitcoin"] = 110
	require.Len(t, tracker.Check(context.Background(), bitcoinOnly), 1)
}

func TestTracker_ProviderFailureKeepsState(t *testing.T) {
	path := seed(t, map[types.AssetID]float64{"bitcoin": 100})
	tracker := NewTracker(&stubProvider{err: errors.New("boom")}, path, true)

	require.Empty(t, tracker.Check(context.Background(), bitcoinOnly))
	tracker.Commit()
	prev, _ := tracker.Previous("bitcoin")
	assert.Equal(t, 100.0, prev)
	assert.Equal(t, map[types.AssetID]float64{"bitcoin": 100}, readState(t, path))
}

func TestTracker_MissingPriceKeepsPrevious(t *testing.T) {
	path := seed(t, map[types.AssetID]float64{"bitcoin": 100, "ethereum": 10})
	tracker := NewTracker(&stubProvider{prices: map[types.AssetID]float64{"bitcoin": 120}}, path, false)

	alerts := tracker.Check(context.Background(), map[types.AssetID]float64{"bitcoin": 5, "ethereum": 5})
	require.Len(t, alerts, 1)
	assert.Equal(t, "bitcoin", alerts[0].Asset)
	tracker.Commit()

	prev, ok := tracker.Previous("ethereum")
	require.True(t, ok)
	assert.Equal(t, 10.0, prev)
	assert.Equal(t, map[types.AssetID]float64{"bitcoin": 120, "ethereum": 10}, readState(t, path))
}

func TestTracker_AlertsSortedByAsset(t *testing.T) {
	path := seed(t, map[types.AssetID]float64{"solana": 10, "bitcoin": 100, "ethereum": 10})
	tracker := NewTracker(&stubProvider{prices: map[types.AssetID]float64{
		"solana": 20, "bitcoin": 200, "ethereum": 20,
	}}, path, false)

	alerts := tracker.Check(context.Background(), map[types.AssetID]float64{"solana": 5, "bitcoin": 5, "ethereum": 5})
	require.Len(t, alerts, 3)
	assert.Equal(t, []string{"bitcoin", "ethereum", "solana"},
		[]string{alerts[0].Asset, alerts[1].Asset, alerts[2].Asset})
}

func TestTracker_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	tracker := NewTracker(&stubProvider{prices: map[types.AssetID]float64{"bitcoin": 100}}, path, false)
	require.Empty(t, tracker.Check(context.Background(), bitcoinOnly))
	tracker.Commit()
	_, ok := tracker.Previous("bitcoin")
	assert.True(t, ok)
}

func TestTracker_NoThresholdsNoRequest(t *testing.T) {
	provider := &stubProvider{}
	tracker := NewTracker(provider, seed(t, nil), false)

	require.Empty(t, tracker.Check(context.Background(), nil))
	assert.Zero(t, provider.calls)
}

func TestTracker_UncommittedCheckKeepsBaseline(t *testing.T) {
	path := seed(t, map[types.AssetID]float64{"bitcoin": 100})
	tracker := NewTracker(&stubProvider{prices: map[types.AssetID]float64{"bitcoin": 106}}, path, false)

	require.Len(t, tracker.Check(context.Background(), bitcoinOnly), 1)
	prev, _ := tracker.Previous("bitcoin")
	assert.Equal(t, 100.0, prev)
	assert.Equal(t, map[types.AssetID]float64{"bitcoin": 100}, readState(t, path))

	// the alert was not delivered, the next check raises it again
	alerts := tracker.Check(context.Background(), bitcoinOnly)
	require.Len(t, alerts, 1)
	assert.InDelta(t, 6.0, alerts[0].Change, 1e-9)

	tracker.Commit()
	require.Empty(t, tracker.Check(context.Background(), bitcoinOnly))
}

func TestTracker_FailedCheckDropsPending(t *testing.T) {
	provider := &stubProvider{prices: map[types.AssetID]float64{"bitcoin": 106}}
	path := seed(t, map[types.AssetID]float64{"bitcoin": 100})
	tracker := NewTracker(provider, path, false)

	require.Len(t, tracker.Check(context.Background(), bitcoinOnly), 1)
	provider.err = errors.New("boom")
	require.Empty(t, tracker.Check(context.Background(), bitcoinOnly))
	tracker.Commit()

	prev, _ := tracker.Previous("bitcoin")
	assert.Equal(t, 100.0, prev)
}
