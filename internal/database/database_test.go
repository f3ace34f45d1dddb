package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.db")
	db, err := Open(path)
	require.NoError(t, err)

	value, err := db.GetMetric("commands_processed")
	require.NoError(t, err)
	require.Zero(t, value)

	require.NoError(t, db.SaveMetric("commands_processed", 3))
	require.NoError(t, db.SaveMetric("commands_processed", 5))
	require.NoError(t, db.SaveMetricWithLabels("messages_per_chat", "42", "PrivateChat-42", 7))
	require.NoError(t, db.SaveMetricWithLabels("source_failures", "newsapi", "", 2))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	value, err = db.GetMetric("commands_processed")
	require.NoError(t, err)
	require.Equal(t, 5.0, value)

	labeled, err := db.GetMetricsWithLabels("messages_per_chat")
	require.NoError(t, err)
	require.Equal(t, map[string]map[string]float64{"42": {"PrivateChat-42": 7}}, labeled)

	labeled, err = db.GetMetricsWithLabels("source_failures")
	require.NoError(t, err)
	require.Equal(t, 2.0, labeled["newsapi"][""])

	labeled, err = db.GetMetricsWithLabels("commands_processed")
	require.NoError(t, err)
	require.Empty(t, labeled)
}
