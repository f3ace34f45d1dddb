package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestThresholds(t *testing.T) {
	t.Setenv("TRACKED_ASSETS", "Bitcoin, ethereum,,solana")
	t.Setenv("PRICE_THRESHOLD_BITCOIN", "7.5")
	t.Setenv("PRICE_THRESHOLD_ETHEREUM", "not-a-number")

	require.Equal(t, map[string]float64{
		"bitcoin":  7.5,
		"ethereum": DefaultThreshold,
		"solana":   DefaultThreshold,
	}, Thresholds())
}

func TestDefaults(t *testing.T) {
	require.Equal(t, []string{"bitcoin", "ethereum"}, GetList("tracked_assets"))
	require.Equal(t, "@every 3600s", GetString("poll_schedule"))
	require.Equal(t, 60, int(GetDuration("error_backoff").Seconds()))
	require.Equal(t, 2, int(GetDuration("message_delay").Seconds()))
	require.Equal(t, 10, int(GetDuration("http_timeout").Seconds()))
	require.Equal(t, 25.0, GetFloat64("global_send_rate"))
}

func TestValidate(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	require.Error(t, Validate())

	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("PRICE_PROVIDER", "coingecko")
	require.NoError(t, Validate())

	t.Setenv("PRICE_PROVIDER", "binance")
	require.Error(t, Validate())
}

func TestGetIDs(t *testing.T) {
	t.Setenv("ADMIN_IDS", "42, -100500,nope,,7")
	require.Equal(t, []int64{42, -100500, 7}, GetIDs("admin_ids"))

	t.Setenv("ADMIN_IDS", "")
	require.Empty(t, GetIDs("admin_ids"))
}
