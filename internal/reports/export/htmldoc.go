package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/stockpulse/stockpulse/internal/reports"
)

// WriteDocument serialises title, summary and data table into a print-ready
// HTML document. At most rowCap data rows are written; when the payload holds
// more, a single truncation notice row closes the table.
func WriteDocument(w io.Writer, payload reports.Payload, rowCap int) error {
	var b strings.Builder
	b.WriteString("<html><head><meta charset=\"utf-8\"><style>")
	b.WriteString("body{font-family:sans-serif;margin:24px;}h1{font-size:20px;}table{width:100%;border-collapse:collapse;margin-bottom:16px;}th,td{border:1px solid #ddd;padding:6px;text-align:right;}th{text-align:left;background:#f5f5f5;}section{margin-bottom:24px;} .label{text-align:left;} .notice{text-align:center;font-style:italic;background:#fffbe6;}")
	b.WriteString("</style></head><body>")
	b.WriteString(fmt.Sprintf("<h1>%s</h1>", templateEscape(payload.Title)))

	b.WriteString("<section><h2>Summary</h2><table><tbody>")
	for _, item := range summaryItems(payload.Summary) {
		b.WriteString("<tr><td class=\"label\">")
		b.WriteString(templateEscape(item.label))
		b.WriteString("</td><td>")
		b.WriteString(templateEscape(formatCell(item.value)))
		b.WriteString("</td></tr>")
	}
	b.WriteString("</tbody></table></section>")

	columns := reports.Columns(payload.Type)
	b.WriteString("<section><h2>Data</h2><table><thead><tr>")
	for _, c := range columns {
		b.WriteString("<th>")
		b.WriteString(templateEscape(c.Title))
		b.WriteString("</th>")
	}
	b.WriteString("</tr></thead><tbody>")

	limit := len(payload.Rows)
	truncated := false
	if rowCap > 0 && limit > rowCap {
		limit = rowCap
		truncated = true
	}
	for _, row := range payload.Rows[:limit] {
		b.WriteString("<tr>")
		for i, c := range columns {
			if i == 0 {
				b.WriteString("<td class=\"label\">")
			} else {
				b.WriteString("<td>")
			}
			b.WriteString(templateEscape(formatCell(row[c.Key])))
			b.WriteString("</td>")
		}
		b.WriteString("</tr>")
	}
	if truncated {
		b.WriteString(fmt.Sprintf("<tr><td class=\"notice\" colspan=\"%d\">", len(columns)))
		b.WriteString(fmt.Sprintf("Showing first %d of %d rows &mdash; truncated, use the spreadsheet export for full data", limit, len(payload.Rows)))
		b.WriteString("</td></tr>")
	}
	b.WriteString("</tbody></table></section>")
	b.WriteString("</body></html>")

	_, err := io.WriteString(w, b.String())
	return err
}
