package tg

import (
	"fmt"
	"strings"

	"github.com/nelasy5/blockmon/internal/chains"
	"github.com/nelasy5/blockmon/internal/storage"

	"github.com/shopspring/decimal"
)

// FormatRecent собирает плоский текст по журналу доставленных уведомлений.
func FormatRecent(reg *chains.Registry, items []storage.NotificationRecord) string {
	var sb strings.Builder
	sb.WriteString("🕘 Recent notifications\n\n")

	for _, it := range items {
		currency := "?"
		value := it.ValueWei
		if ch, ok := reg.Lookup(it.ChainID); ok {
			currency = ch.NativeCurrency
			if d, err := decimal.NewFromString(it.ValueWei); err == nil {
				value = d.Shift(-ch.Decimals).Truncate(6).StringFixed(6)
			}
		}

		status := "🟡"
		if it.Confirmed {
			status = "🟢"
		}

		bn := ""
		if it.BlockNum != nil {
			bn = fmt.Sprintf(" #%d", *it.BlockNum)
		}

		sb.WriteString(fmt.Sprintf(
			"• %s %s%s\n  %s %s (chain: %d)\n",
			status, shortenHash(it.Hash), bn, value, currency, it.ChainID,
		))
	}

	return sb.String()
}

func shortenHash(h string) string {
	if len(h) <= 14 {
		return h
	}
	return h[:10] + "…" + h[len(h)-4:]
}
