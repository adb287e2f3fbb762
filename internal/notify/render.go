package notify

import (
	"fmt"
	"strings"

	"github.com/nelasy5/blockmon/internal/bus"
	"github.com/nelasy5/blockmon/internal/chains"

	"github.com/shopspring/decimal"
)

const (
	glyphPending   = "🟡"
	glyphConfirmed = "🟢"

	labelRunes    = 12 // сколько остаётся от адреса/хэша после усечения
	valueDecimals = 6
)

// MarkdownV2 reserved characters, see Telegram Bot API.
var mdEscaper = strings.NewReplacer(
	`_`, `\_`, `*`, `\*`, `[`, `\[`, `]`, `\]`, `(`, `\(`, `)`, `\)`,
	`~`, `\~`, "`", "\\`", `>`, `\>`, `#`, `\#`, `+`, `\+`, `-`, `\-`,
	`=`, `\=`, `|`, `\|`, `{`, `\{`, `}`, `\}`, `.`, `\.`, `!`, `\!`,
)

func escapeMarkdownV2(s string) string { return mdEscaper.Replace(s) }

// truncateMiddle обрезает середину, сохраняя начало и конец.
// Детерминированно: один и тот же адрес всегда даёт одну и ту же метку,
// иначе edit-in-place менял бы текст без причины.
func truncateMiddle(s string, n int) string {
	r := []rune(s)
	if len(r) <= n || n < 2 {
		return s
	}
	keep := n - 1
	head := (keep + 1) / 2
	tail := keep - head
	return string(r[:head]) + "…" + string(r[len(r)-tail:])
}

// formatValue переводит value из минимальных единиц в человеческий вид.
// Хвост усекается, не округляется.
func formatValue(raw string, decimals int32) (string, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return "", fmt.Errorf("parse value %q: %w", raw, err)
	}
	return d.Shift(-decimals).Truncate(valueDecimals).StringFixed(valueDecimals), nil
}

func link(label, url string) string {
	return "[" + escapeMarkdownV2(label) + "](" + url + ")"
}

// Render builds the MarkdownV2 notification text. Pure: identical input
// yields byte-identical output, which the edit flow relies on.
func Render(tx bus.Tx, ch chains.Chain, fromName, toName string) (string, error) {
	value, err := formatValue(tx.ValueWei, ch.Decimals)
	if err != nil {
		return "", err
	}

	fromLabel := fromName
	if fromLabel == "" {
		fromLabel = truncateMiddle(tx.From, labelRunes)
	}
	toLabel := toName
	if toLabel == "" {
		toLabel = truncateMiddle(tx.To, labelRunes)
	}

	fromMark := link(fromLabel, ch.AddressURL(tx.From))
	toMark := link(toLabel, ch.AddressURL(tx.To))
	hashMark := link(truncateMiddle(tx.Hash, labelRunes), ch.TxURL(tx.Hash))

	glyph := glyphPending
	if tx.Confirmed {
		glyph = glyphConfirmed
	}

	// Если известна сторона from — показываем from -> to, иначе
	// разворачиваем, чтобы узнаваемая сторона шла первой.
	direction := toMark + " " + escapeMarkdownV2("<-") + " " + fromMark
	if fromName != "" {
		direction = fromMark + " " + escapeMarkdownV2("->") + " " + toMark
	}

	return strings.Join([]string{
		"*New Transaction* " + hashMark + " " + glyph,
		"",
		direction,
		"",
		escapeMarkdownV2(value) + " " + ch.NativeCurrency + " " + escapeMarkdownV2(fmt.Sprintf("(chain: %d)", tx.ChainID)),
	}, "\n"), nil
}
