package telegram

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"crypto-news-bot/internal/commands"
	"crypto-news-bot/lib/helpers"
	"crypto-news-bot/lib/translation"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// MembershipChecker tells whether a user joined the broadcast channel.
type MembershipChecker interface {
	IsMember(ctx context.Context, channelID, userID int64) (bool, error)
}

// Handler turns incoming messages into replies. It keeps per chat state for
// multi step flows such as "press Subscribe, then type the coins".
type Handler struct {
	service    *commands.Service
	members    MembershipChecker
	channelID  int64
	inviteLink string
	admins     map[int64]bool

	mu       sync.Mutex
	awaiting map[int64]awaiting
}

// NewHandler creates a handler. Only users in admins may ask for /status.
func NewHandler(service *commands.Service, members MembershipChecker, channelID int64, inviteLink string, admins []int64) *Handler {
	h := &Handler{
		service:    service,
		members:    members,
		channelID:  channelID,
		inviteLink: inviteLink,
		admins:     make(map[int64]bool, len(admins)),
		awaiting:   make(map[int64]awaiting),
	}
	for _, id := range admins {
		h.admins[id] = true
	}
	return h
}

const helpText = "Available commands:\n\n" +
	"/start - show the menu\n" +
	"/help - this message\n" +
	"/subscribe &lt;coins&gt; - follow coins, comma separated\n" +
	"/unsubscribe &lt;coin&gt; - stop following a coin\n" +
	"/subscriptions - list the coins you follow\n" +
	"/news - latest news about your coins\n" +
	"/price - current USD prices\n" +
	"/volatility - price change over 1h, 24h, 7d, 14d and 30d\n" +
	"/channel - link to the news channel\n\n" +
	"Use full coin ids in latin letters, such as bitcoin, ethereum or solana."

var yesAnswers = map[string]bool{"yes": true, "y": true, "да": true, "д": true, "lf": true}

// Handle processes one incoming message.
func (h *Handler) Handle(ctx context.Context, in Incoming) []Reply {
	command := strings.ToLower(in.Command)
	if command == "" {
		command = buttonCommands[strings.ToLower(strings.TrimSpace(in.Text))]
	}
	log.Debugf("received command %q from %d", command, in.UserID)

	if command != "" {
		// a command always cancels a pending prompt
		h.setAwaiting(in.ChatID, awaitingNothing)
		return h.command(ctx, command, in)
	}

	switch h.takeAwaiting(in.ChatID) {
	case awaitingSubscribe:
		return h.subscribe(ctx, in, in.Text)
	case awaitingUnsubscribe:
		return h.unsubscribe(in, in.Text)
	case awaitingChannel:
		if yesAnswers[strings.ToLower(strings.TrimSpace(in.Text))] {
			return []Reply{{Text: translation.Translate("Great! Here is the channel link:\n%s\n\nAfter joining press the Telegram button again so the bot can see your membership.",
				helpers.EscapeHTML(h.inviteLink)), Keyboard: true}}
		}
		return []Reply{{Text: translation.Translate("All right, maybe later."), Keyboard: true}}
	}

	return []Reply{{Text: translation.Translate("I did not understand that. Please use the buttons below."), Keyboard: true}}
}

func (h *Handler) command(ctx context.Context, command string, in Incoming) []Reply {
	subscriber := strconv.FormatInt(in.UserID, 10)

	switch command {
	case "start":
		return []Reply{{Text: translation.Translate("Hi! I am <b>CryptoNewsBot</b>.\n\nI deliver crypto news and track coin prices for you.\nUse the menu below."), Keyboard: true}}
	case "help":
		return []Reply{{Text: translation.Translate(helpText), Keyboard: true}}
	case "subscribe":
		if strings.TrimSpace(in.Args) != "" {
			return h.subscribe(ctx, in, in.Args)
		}
		h.setAwaiting(in.ChatID, awaitingSubscribe)
		return []Reply{{Text: h.subscribePrompt(subscriber)}}
	case "unsubscribe":
		if strings.TrimSpace(in.Args) != "" {
			return h.unsubscribe(in, in.Args)
		}
		subs := h.service.Subscriptions(subscriber)
		if len(subs) == 0 {
			return []Reply{{Text: translation.Translate("You have no active subscriptions."), Keyboard: true}}
		}
		h.setAwaiting(in.ChatID, awaitingUnsubscribe)
		return []Reply{{Text: translation.Translate("Your active subscriptions:") + "\n" + helpers.SubscriptionList(subs) +
			"\n\n" + translation.Translate("Type the coin you want to unsubscribe from.")}}
	case "subscriptions":
		subs := h.service.Subscriptions(subscriber)
		if len(subs) == 0 {
			return []Reply{{Text: translation.Translate("You have no active subscriptions."), Keyboard: true}}
		}
		return []Reply{{Text: translation.Translate("Your active subscriptions:") + "\n" + helpers.SubscriptionList(subs)}}
	case "news":
		return h.news(ctx, subscriber)
	case "price":
		text, err := h.service.Price(ctx, subscriber)
		return []Reply{h.marketReply(text, err, translation.Translate("Could not fetch prices right now."))}
	case "volatility":
		text, err := h.service.Volatility(ctx, subscriber)
		return []Reply{h.marketReply(text, err, translation.Translate("Could not fetch volatility data right now."))}
	case "channel":
		return h.channel(ctx, in)
	case "status":
		if !h.admins[in.UserID] {
			log.WithField("user_id", in.UserID).Warn("⚠️ status requested by a non admin")
			return []Reply{{Text: translation.Translate("This command is available to administrators only."), Keyboard: true}}
		}
		return []Reply{{Text: h.service.Status()}}
	}

	return []Reply{{Text: translation.Translate(helpText), Keyboard: true}}
}

func (h *Handler) subscribePrompt(subscriber string) string {
	example := "\n" + translation.Translate("Type coins separated by commas, for example: <code>bitcoin, ethereum, solana</code>")
	subs := h.service.Subscriptions(subscriber)
	if len(subs) == 0 {
		return translation.Translate("You have no subscriptions yet.") + example
	}
	return translation.Translate("Your current subscriptions:") + "\n" + helpers.SubscriptionList(subs) + "\n" + example
}

func (h *Handler) subscribe(ctx context.Context, in Incoming, input string) []Reply {
	res := h.service.Subscribe(ctx, strconv.FormatInt(in.UserID, 10), input)
	if res.Empty() {
		return []Reply{{Text: translation.Translate("No coins recognized, please try again."), Keyboard: true}}
	}

	var lines []string
	if len(res.Added) > 0 {
		lines = append(lines, translation.Translate("Subscribed to:")+" "+escapeJoin(res.Added))
	}
	if len(res.Already) > 0 {
		lines = append(lines, translation.Translate("Already subscribed to:")+" "+escapeJoin(res.Already))
	}
	if len(res.Invalid) > 0 {
		lines = append(lines, translation.Translate("Not found:")+" "+escapeJoin(res.Invalid)+
			"\n"+translation.Translate("Check the spelling, coins use their full name such as bitcoin."))
	}
	if len(res.Suggestions) > 0 {
		queries := make([]string, 0, len(res.Suggestions))
		for query := range res.Suggestions {
			queries = append(queries, query)
		}
		sort.Strings(queries)
		for _, query := range queries {
			lines = append(lines, translation.Translate("Did you mean %s instead of %s?",
				"<code>"+helpers.EscapeHTML(res.Suggestions[query])+"</code>", helpers.EscapeHTML(query)))
		}
	}
	return []Reply{{Text: strings.Join(lines, "\n"), Keyboard: true}}
}

func (h *Handler) unsubscribe(in Incoming, input string) []Reply {
	asset, ok := h.service.Unsubscribe(strconv.FormatInt(in.UserID, 10), input)
	if ok {
		return []Reply{{Text: translation.Translate("You unsubscribed from %s.", helpers.EscapeHTML(asset)), Keyboard: true}}
	}
	return []Reply{{Text: translation.Translate("You were not subscribed to %s, or the coin name is wrong.", helpers.EscapeHTML(asset)), Keyboard: true}}
}

func (h *Handler) news(ctx context.Context, subscriber string) []Reply {
	items, err := h.service.News(ctx, subscriber)
	switch {
	case errors.Is(err, commands.ErrNoSubscriptions):
		return []Reply{{Text: noSubscriptions()}}
	case errors.Is(err, commands.ErrNoNews):
		return []Reply{{Text: translation.Translate("Could not fetch news right now.")}}
	case err != nil:
		log.WithError(err).Error("❌ news command failed")
		return []Reply{{Text: translation.Translate("Could not fetch news right now.")}}
	case len(items) == 0:
		return []Reply{{Text: translation.Translate("No fresh news for your subscriptions.")}}
	}

	replies := make([]Reply, 0, len(items))
	for _, item := range items {
		replies = append(replies, Reply{Text: helpers.NewsMessage(item)})
	}
	return replies
}

func (h *Handler) marketReply(text string, err error, failure string) Reply {
	if errors.Is(err, commands.ErrNoSubscriptions) {
		return Reply{Text: noSubscriptions()}
	}
	if err != nil {
		log.WithError(err).Error("❌ market command failed")
		return Reply{Text: failure}
	}
	return Reply{Text: text}
}

func (h *Handler) channel(ctx context.Context, in Incoming) []Reply {
	link := helpers.EscapeHTML(h.inviteLink)

	member := false
	if h.members != nil && h.channelID != 0 {
		var err error
		if member, err = h.members.IsMember(ctx, h.channelID, in.UserID); err != nil {
			log.WithError(err).WithField("user_id", in.UserID).Warn("⚠️ channel membership check failed")
		}
	}

	if member {
		return []Reply{{Text: translation.Translate("You are already subscribed to the channel!\nLink: %s", link), Keyboard: true}}
	}
	h.setAwaiting(in.ChatID, awaitingChannel)
	return []Reply{{Text: translation.Translate("Looks like you have not joined our channel yet.\nDo you want to join? Answer Yes or No.")}}
}

func (h *Handler) setAwaiting(chatID int64, state awaiting) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if state == awaitingNothing {
		delete(h.awaiting, chatID)
		return
	}
	h.awaiting[chatID] = state
}

// takeAwaiting returns and clears the pending prompt of chatID.
func (h *Handler) takeAwaiting(chatID int64) awaiting {
	h.mu.Lock()
	defer h.mu.Unlock()
	state := h.awaiting[chatID]
	delete(h.awaiting, chatID)
	return state
}

func noSubscriptions() string {
	return translation.Translate("You have no subscriptions. Subscribe first (🔔 Subscribe).")
}

func escapeJoin(assets []string) string {
	escaped := make([]string, 0, len(assets))
	for _, a := range assets {
		escaped = append(escaped, helpers.EscapeHTML(a))
	}
	return strings.Join(escaped, ", ")
}
