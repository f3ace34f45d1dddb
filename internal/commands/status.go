package commands

import (
	"context"
	"fmt"
	"net"
	"strings"

	"crypto-news-bot/internal/delivery"
	"crypto-news-bot/internal/notifier"
	"crypto-news-bot/lib/translation"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

// Status describes the notification scheduler for operators. The last error
// is reported by category only, raw transport errors may carry credentials.
func (s *Service) Status() string {
	if s.deps.Scheduler == nil {
		return translation.Translate("Scheduler is not running.")
	}
	st := s.deps.Scheduler.Status()

	var b strings.Builder
	fmt.Fprintf(&b, "🤖 <b>%s</b> %s\n", translation.Translate("Scheduler:"), st.State)
	fmt.Fprintf(&b, "%s %d (%s %d)\n", translation.Translate("Cycles:"), st.Runs, translation.Translate("failed"), st.Failures)

	if st.LastRun.IsZero() {
		fmt.Fprintf(&b, "%s %s\n", translation.Translate("Last run:"), translation.Translate("never"))
	} else {
		fmt.Fprintf(&b, "%s %s <code>%s</code>\n", translation.Translate("Last run:"), humanize.Time(st.LastRun), st.LastCycleID)
	}

	lastErr := translation.Translate("none")
	if st.LastErr != nil {
		lastErr = errorCategory(st.LastErr)
	}
	fmt.Fprintf(&b, "%s %s\n", translation.Translate("Last error:"), lastErr)
	fmt.Fprintf(&b, "%s %s", translation.Translate("Language:"), translation.GetLanguage())

	if !st.NextRun.IsZero() {
		fmt.Fprintf(&b, "\n%s %s", translation.Translate("Next run:"), humanize.Time(st.NextRun))
	}
	return b.String()
}

func errorCategory(err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, notifier.ErrPanic):
		return translation.Translate("internal error")
	case errors.Is(err, context.Canceled):
		return translation.Translate("cancelled")
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return translation.Translate("timeout")
	case delivery.IsPermanent(err):
		return translation.Translate("message rejected by Telegram")
	}
	return translation.Translate("alert delivery failed")
}
