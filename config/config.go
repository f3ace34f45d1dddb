package config

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// DefaultThreshold is the alert threshold, in percent, used for tracked assets
// without an explicit PRICE_THRESHOLD_<ASSET> value.
const DefaultThreshold = 5.0

var once sync.Once

func InitConfig() {
	once.Do(func() {
		// .env is optional, the real environment always wins
		_ = godotenv.Load()

		viper.AutomaticEnv()

		viper.BindEnv("metrics_port", "METRICS_PORT")
		viper.BindEnv("telegram_bot_token", "TELEGRAM_BOT_TOKEN")
		viper.BindEnv("channel_id", "CHANNEL_ID")
		viper.BindEnv("channel_invite_link", "CHANNEL_INVITE_LINK")
		viper.BindEnv("admin_ids", "ADMIN_IDS")
		viper.BindEnv("cryptopanic_api_key", "CRYPTOPANIC_API_KEY")
		viper.BindEnv("newsapi_api_key", "NEWSAPI_API_KEY")
		viper.BindEnv("api_pro_key", "API_PRO_KEY")
		viper.BindEnv("coingecko_api_key", "COINGECKO_API_KEY")
		viper.BindEnv("price_provider", "PRICE_PROVIDER")
		viper.BindEnv("poll_schedule", "POLL_SCHEDULE")
		viper.BindEnv("error_backoff", "ERROR_BACKOFF")
		viper.BindEnv("max_error_backoff", "MAX_ERROR_BACKOFF")
		viper.BindEnv("message_delay", "MESSAGE_DELAY")
		viper.BindEnv("global_send_rate", "GLOBAL_SEND_RATE")
		viper.BindEnv("http_timeout", "HTTP_TIMEOUT")
		viper.BindEnv("send_retries", "SEND_RETRIES")
		viper.BindEnv("dedupe_window", "DEDUPE_WINDOW")
		viper.BindEnv("direct_notifications", "DIRECT_NOTIFICATIONS")
		viper.BindEnv("persist_prices_always", "PERSIST_PRICES_ALWAYS")
		viper.BindEnv("tracked_assets", "TRACKED_ASSETS")
		viper.BindEnv("data_dir", "DATA_DIR")
		viper.BindEnv("debug", "DEBUG")
		viper.BindEnv("log_level", "LOG_LEVEL")
		viper.BindEnv("lang", "LANG")

		viper.SetDefault("metrics_port", 9090)
		viper.SetDefault("price_provider", "coinpaprika")
		viper.SetDefault("poll_schedule", "@every 3600s")
		viper.SetDefault("error_backoff", 60*time.Second)
		viper.SetDefault("max_error_backoff", 60*time.Second)
		viper.SetDefault("message_delay", 2*time.Second)
		viper.SetDefault("global_send_rate", 25.0)
		viper.SetDefault("http_timeout", 10*time.Second)
		viper.SetDefault("send_retries", 3)
		viper.SetDefault("dedupe_window", 24*time.Hour)
		viper.SetDefault("direct_notifications", true)
		viper.SetDefault("persist_prices_always", false)
		viper.SetDefault("tracked_assets", "bitcoin,ethereum")
		viper.SetDefault("data_dir", "data")
		viper.SetDefault("debug", false)
		viper.SetDefault("lang", "en")
	})
}

func GetString(key string) string {
	InitConfig()
	return viper.GetString(key)
}

func GetInt(key string) int {
	InitConfig()
	return viper.GetInt(key)
}

func GetInt64(key string) int64 {
	InitConfig()
	return viper.GetInt64(key)
}

func GetFloat64(key string) float64 {
	InitConfig()
	return viper.GetFloat64(key)
}

func GetBool(key string) bool {
	InitConfig()
	return viper.GetBool(key)
}

func GetDuration(key string) time.Duration {
	InitConfig()
	return viper.GetDuration(key)
}

// GetList reads a comma separated value, lowercased and trimmed.
func GetList(key string) []string {
	var out []string
	for _, v := range strings.Split(GetString(key), ",") {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// GetIDs reads a comma separated list of Telegram ids. Entries that are not
// integers are skipped.
func GetIDs(key string) []int64 {
	var ids []int64
	for _, v := range GetList(key) {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// Thresholds returns the alert threshold of every tracked asset. A missing or
// unparsable PRICE_THRESHOLD_<ASSET> falls back to DefaultThreshold.
func Thresholds() map[string]float64 {
	thresholds := make(map[string]float64)
	for _, asset := range GetList("tracked_assets") {
		thresholds[asset] = DefaultThreshold

		raw := strings.TrimSpace(GetString(thresholdKey(asset)))
		if raw == "" {
			continue
		}
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 {
			thresholds[asset] = v
		}
	}
	return thresholds
}

func thresholdKey(asset string) string {
	return fmt.Sprintf("price_threshold_%s", strings.ReplaceAll(asset, "-", "_"))
}

// Validate reports configuration problems that must stop the process before
// anything else starts.
func Validate() error {
	if GetString("telegram_bot_token") == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is not set")
	}
	if p := GetString("price_provider"); p != "coinpaprika" && p != "coingecko" {
		return errors.Errorf("unknown PRICE_PROVIDER %q", p)
	}
	return nil
}
