package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"crypto-news-bot/config"
	"crypto-news-bot/internal/assets"
	"crypto-news-bot/internal/commands"
	"crypto-news-bot/internal/database"
	"crypto-news-bot/internal/delivery"
	"crypto-news-bot/internal/metrics"
	"crypto-news-bot/internal/news"
	"crypto-news-bot/internal/notifier"
	"crypto-news-bot/internal/price"
	"crypto-news-bot/internal/sentiment"
	"crypto-news-bot/internal/subscription"
	"crypto-news-bot/internal/telegram"
	"crypto-news-bot/lib/translation"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

func init() {
	config.InitConfig()
	setupLogging()
}

func main() {
	if err := config.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	translation.Configure("locales", config.GetString("lang"))
	log.Infof("🌐 replying in %q", translation.GetLanguage())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dataDir := config.GetString("data_dir")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	db, err := database.Open(filepath.Join(dataDir, "bot.db"))
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()
	metrics.Load(db)

	timeout := config.GetDuration("http_timeout")
	provider, suggester := newPriceProvider(timeout)
	known := assets.Load(ctx, provider)

	store := subscription.NewStore(filepath.Join(dataDir, subscription.FileName))
	tracker := price.NewTracker(provider, filepath.Join(dataDir, price.FileName), config.GetBool("persist_prices_always"))
	aggregator := news.NewAggregator(
		news.NewCryptoPanic(config.GetString("cryptopanic_api_key"), timeout),
		news.NewNewsAPI(config.GetString("newsapi_api_key"), timeout),
		news.NewCoinDesk(timeout),
		news.NewCoinTelegraph(timeout),
	)
	scorer := sentiment.NewScorer()

	bot, err := telegram.NewBot(telegram.BotConfig{
		Token:          config.GetString("telegram_bot_token"),
		Debug:          config.GetBool("debug"),
		UpdatesTimeout: 60,
	})
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	attempts := config.GetInt("send_retries")
	var limiter *rate.Limiter
	if delay := config.GetDuration("message_delay"); delay > 0 {
		limiter = rate.NewLimiter(rate.Every(delay), 1)
	}
	// every outgoing message of the bot shares the Telegram wide send limit
	var global *rate.Limiter
	if perSecond := config.GetFloat64("global_send_rate"); perSecond > 0 {
		global = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
	bot.SetReplyLimits(global, attempts)

	channelID := config.GetInt64("channel_id")
	scheduler, err := notifier.New(notifier.Deps{
		News:        aggregator,
		Scorer:      scorer,
		Prices:      tracker,
		Subscribers: store,
		Channel:     delivery.NewDeliverer(bot, limiter, attempts).WithLimiter(global),
		Direct:      delivery.NewDeliverer(bot, global, attempts),
	}, notifier.Config{
		ChannelID:           channelID,
		Schedule:            config.GetString("poll_schedule"),
		ErrorBackoff:        config.GetDuration("error_backoff"),
		MaxErrorBackoff:     config.GetDuration("max_error_backoff"),
		DedupeWindow:        config.GetDuration("dedupe_window"),
		DirectNotifications: config.GetBool("direct_notifications"),
		Thresholds:          config.Thresholds(),
	})
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	service := commands.NewService(commands.Deps{
		Store:     store,
		Known:     known,
		News:      aggregator,
		Scorer:    scorer,
		Market:    provider,
		Suggester: suggester,
		Scheduler: scheduler,
	})
	handler := telegram.NewHandler(service, bot, channelID, config.GetString("channel_invite_link"), config.GetIDs("admin_ids"))

	go scheduler.Run(ctx)
	go handleUpdates(ctx, bot, handler, bot.GetUpdatesChannel())
	go saveMetricsPeriodically(ctx, db)
	go func() {
		if err := launchMetricsAndHealthServer(config.GetInt("metrics_port")); err != nil {
			log.Fatalf("Failed to start metrics and health server: %v", err)
		}
	}()

	<-ctx.Done()
	bot.Stop()
	metrics.Save(db)
	log.Info("Metrics saved, shutting down...")
}

func setupLogging() {
	log.SetLevel(log.ErrorLevel)
	if level, err := log.ParseLevel(config.GetString("log_level")); err == nil {
		log.SetLevel(level)
	}
	if config.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}
	log.Debug("Starting telegram bot...")
}

// newPriceProvider returns the configured provider and, when it supports
// search, a suggester for misspelled coins.
func newPriceProvider(timeout time.Duration) (price.Provider, price.Suggester) {
	if config.GetString("price_provider") == "coingecko" {
		return price.NewCoinGecko(config.GetString("coingecko_api_key"), timeout), nil
	}
	paprika := price.NewCoinPaprikaWithTimeout(timeout, config.GetString("api_pro_key"))
	return paprika, paprika
}

func handleUpdates(ctx context.Context, bot *telegram.Bot, handler *telegram.Handler, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			go bot.HandleUpdate(ctx, handler, update)
		}
	}
}

func saveMetricsPeriodically(ctx context.Context, db *database.DB) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.Save(db)
		}
	}
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func launchMetricsAndHealthServer(port int) error {
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/health", healthCheckHandler)

	log.Infof("Launching metrics and health endpoint on :%d", port)
	return http.ListenAndServe(fmt.Sprintf(":%d", port), http.DefaultServeMux)
}
