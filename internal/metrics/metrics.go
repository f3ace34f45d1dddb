// Package metrics holds the prometheus collectors of the bot.
package metrics

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "cryptonews"
	subsystem = "telegram_bot"
)

var (
	CommandsProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "commands_processed",
		Help:      "The total number of processed commands",
	})
	MessagesHandled = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "messages_handled",
		Help:      "The total number of handled messages",
	})
	ChatsCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "chats_count",
		Help:      "The current number of unique chats the bot has talked to",
	})
	MessagesPerChat = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "messages_per_chat",
		Help:      "The total number of messages handled per chat",
	}, []string{"chat_id", "chat_name"})
	Cycles = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "cycles",
		Help:      "Notification cycles by result",
	}, []string{"result"})
	NewsBroadcast = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "news_broadcast",
		Help:      "News messages delivered to the broadcast channel",
	})
	DigestsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "digests_sent",
		Help:      "Per-subscriber news digests delivered",
	})
	PriceAlerts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "price_alerts",
		Help:      "Price alerts fired",
	})
	SourceFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "source_failures",
		Help:      "Failed news source requests by source",
	}, []string{"source"})
	DeliveryFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "delivery_failures",
		Help:      "Messages that could not be delivered after all retries",
	})
	Subscribers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "subscribers",
		Help:      "Subscribers with at least one asset",
	})
)

var (
	chats   = make(map[int64]string)
	chatsMu sync.Mutex
)

func init() {
	prometheus.MustRegister(
		CommandsProcessed,
		MessagesHandled,
		ChatsCount,
		MessagesPerChat,
		Cycles,
		NewsBroadcast,
		DigestsSent,
		PriceAlerts,
		SourceFailures,
		DeliveryFailures,
		Subscribers,
	)
}

// TrackMessage counts an incoming message of chatID.
func TrackMessage(chatID int64, chatName string) {
	if chatName == "" {
		chatName = fmt.Sprintf("%s-%d", "PrivateChat", chatID)
	}

	MessagesHandled.Inc()
	MessagesPerChat.WithLabelValues(fmt.Sprintf("%d", chatID), chatName).Inc()

	chatsMu.Lock()
	defer chatsMu.Unlock()
	if _, exists := chats[chatID]; !exists {
		chats[chatID] = chatName
		ChatsCount.Set(float64(len(chats)))
	}
}
