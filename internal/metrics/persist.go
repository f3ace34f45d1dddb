package metrics

import (
	"strconv"

	"crypto-news-bot/internal/database"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	log "github.com/sirupsen/logrus"
)

var plainCounters = map[string]prometheus.Counter{
	"commands_processed": CommandsProcessed,
	"messages_handled":   MessagesHandled,
	"news_broadcast":     NewsBroadcast,
	"digests_sent":       DigestsSent,
	"price_alerts":       PriceAlerts,
	"delivery_failures":  DeliveryFailures,
}

// single label vectors, stored as label_key = label value
var labeledCounters = map[string]*prometheus.CounterVec{
	"cycles":          Cycles,
	"source_failures": SourceFailures,
}

// Load restores counters saved by a previous run.
func Load(db *database.DB) {
	for name, counter := range plainCounters {
		value, err := db.GetMetric(name)
		if err != nil {
			log.WithError(err).Warnf("failed to load metric %s", name)
			continue
		}
		counter.Add(value)
	}

	for name, vec := range labeledCounters {
		rows, err := db.GetMetricsWithLabels(name)
		if err != nil {
			log.WithError(err).Warnf("failed to load metric %s", name)
			continue
		}
		for label, values := range rows {
			for _, value := range values {
				vec.WithLabelValues(label).Add(value)
			}
		}
	}

	rows, err := db.GetMetricsWithLabels("messages_per_chat")
	if err != nil {
		log.WithError(err).Warn("failed to load metric messages_per_chat")
		return
	}

	chatsMu.Lock()
	defer chatsMu.Unlock()
	for chatIDStr, names := range rows {
		chatID, err := strconv.ParseInt(chatIDStr, 10, 64)
		if err != nil {
			log.Warnf("Failed to parse chatID %s: %v", chatIDStr, err)
			continue
		}
		for chatName, value := range names {
			MessagesPerChat.WithLabelValues(chatIDStr, chatName).Add(value)
			chats[chatID] = chatName
		}
	}
	ChatsCount.Set(float64(len(chats)))

	log.Info("Metrics loaded from database.")
}

// Save writes the current counter values.
func Save(db *database.DB) {
	for name, counter := range plainCounters {
		if err := db.SaveMetric(name, Value(counter)); err != nil {
			log.WithError(err).Warnf("failed to save metric %s", name)
		}
	}

	for name, vec := range labeledCounters {
		for _, m := range collect(vec) {
			labels := m.GetLabel()
			if len(labels) != 1 {
				continue
			}
			if err := db.SaveMetricWithLabels(name, labels[0].GetValue(), "", m.GetCounter().GetValue()); err != nil {
				log.WithError(err).Warnf("failed to save metric %s", name)
			}
		}
	}

	for _, m := range collect(MessagesPerChat) {
		var chatID, chatName string
		for _, label := range m.GetLabel() {
			switch label.GetName() {
			case "chat_id":
				chatID = label.GetValue()
			case "chat_name":
				chatName = label.GetValue()
			}
		}
		if err := db.SaveMetricWithLabels("messages_per_chat", chatID, chatName, m.GetCounter().GetValue()); err != nil {
			log.WithError(err).Warn("failed to save metric messages_per_chat")
		}
	}

	log.Info("Metrics saved to database.")
}

// Value reads the current value of a single counter or gauge.
func Value(metric prometheus.Collector) float64 {
	for _, m := range collect(metric) {
		if m.Counter != nil {
			return m.Counter.GetValue()
		}
		if m.Gauge != nil {
			return m.Gauge.GetValue()
		}
	}
	return 0
}

func collect(collector prometheus.Collector) []*dto.Metric {
	ch := make(chan prometheus.Metric)
	go func() {
		collector.Collect(ch)
		close(ch)
	}()

	var out []*dto.Metric
	for metric := range ch {
		m := &dto.Metric{}
		if err := metric.Write(m); err != nil {
			log.WithError(err).Warn("Failed to read metric value")
			continue
		}
		out = append(out, m)
	}
	return out
}
