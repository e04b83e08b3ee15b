package export

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/stockpulse/stockpulse/internal/reports"
)

var printer = message.NewPrinter(language.English)

// formatCell renders a scalar for document output with thousands separators
// on numeric values.
func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return printer.Sprintf("%.2f", val)
	case float32:
		return printer.Sprintf("%.2f", float64(val))
	case int:
		return printer.Sprintf("%d", val)
	case int64:
		return printer.Sprintf("%d", val)
	case bool:
		return strconv.FormatBool(val)
	default:
		return printer.Sprintf("%v", val)
	}
}

type summaryItem struct {
	label string
	value any
}

// summaryItems flattens the summary map into a deterministic ordering.
func summaryItems(summary reports.Summary) []summaryItem {
	keys := make([]string, 0, len(summary))
	for key := range summary {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	items := make([]summaryItem, 0, len(keys))
	for _, key := range keys {
		items = append(items, summaryItem{label: summaryLabel(key), value: summary[key]})
	}
	return items
}

func summaryLabel(key string) string {
	words := strings.Split(key, "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

func templateEscape(v string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\"", "&quot;",
		"'", "&#39;",
	)
	return replacer.Replace(v)
}
