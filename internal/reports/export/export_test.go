package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/stockpulse/stockpulse/internal/reports"
	"github.com/stockpulse/stockpulse/internal/shared"
)

func lowStockPayload(t *testing.T, rowCount int) reports.Payload {
	t.Helper()
	input := make([]reports.StockLevelRow, 0, rowCount)
	for i := 0; i < rowCount; i++ {
		input = append(input, reports.StockLevelRow{
			SKU:          "SKU-" + string(rune('A'+i%26)) + "-" + time.Now().Format("05"),
			Name:         "Item",
			CurrentStock: float64(i % 5),
			MinStock:     100,
		})
	}
	rows, summary := reports.ClassifyStockLevels(input)
	payload, err := reports.Assemble(reports.TypeLowStock, rows, summary)
	require.NoError(t, err)
	return payload
}

func TestWriteDocumentTruncatesAtCap(t *testing.T) {
	payload := lowStockPayload(t, 250)
	require.Len(t, payload.Rows, 250)

	var buf bytes.Buffer
	require.NoError(t, WriteDocument(&buf, payload, PrintRowCap))
	html := buf.String()

	// Exactly 100 data rows plus one truncation notice after the header.
	body := html[strings.LastIndex(html, "</thead>"):]
	require.Equal(t, PrintRowCap+1, strings.Count(body, "<tr>"))
	require.Contains(t, html, "truncated")
	require.Contains(t, html, "use the spreadsheet export")
	require.Contains(t, html, "first 100 of 250")
}

func TestWriteDocumentNoNoticeUnderCap(t *testing.T) {
	payload := lowStockPayload(t, 10)
	var buf bytes.Buffer
	require.NoError(t, WriteDocument(&buf, payload, PrintRowCap))
	require.NotContains(t, buf.String(), "truncated")
}

func TestWriteDocumentEscapesContent(t *testing.T) {
	rows, summary := reports.ClassifyStockLevels([]reports.StockLevelRow{
		{SKU: "<script>", Name: "Alpha & Co", CurrentStock: 0, MinStock: 1},
	})
	payload, err := reports.Assemble(reports.TypeLowStock, rows, summary)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteDocument(&buf, payload, PrintRowCap))
	html := buf.String()
	require.NotContains(t, html, "<script>")
	require.Contains(t, html, "&lt;script&gt;")
	require.Contains(t, html, "Alpha &amp; Co")
}

func TestWriteWorkbookRoundTrip(t *testing.T) {
	payload := lowStockPayload(t, 5)
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, payload))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	cells, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Equal(t, payload.Title, cells[0][0])

	// Header row carries every column title, data rows follow uncapped.
	flat := strings.Join(flatten(cells), "\n")
	for _, header := range payload.Headers {
		require.Contains(t, flat, header)
	}
	require.Contains(t, flat, "out_of_stock")
}

func flatten(rows [][]string) []string {
	out := []string{}
	for _, row := range rows {
		out = append(out, row...)
	}
	return out
}

func TestExportWritesAtomically(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	exporter := NewExporter(dir, nil)

	payload := lowStockPayload(t, 3)
	artifact, err := exporter.Export(payload, reports.FormatPrint)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(artifact.Filename, "low-stock_"))
	require.True(t, strings.HasSuffix(artifact.Filename, ".html"))

	info, err := os.Stat(artifact.Path)
	require.NoError(t, err)
	require.Equal(t, artifact.ByteSize, info.Size())

	// No temp leftovers referenced or otherwise.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, entry := range entries {
		require.False(t, strings.HasPrefix(entry.Name(), ".tmp-"), "leftover temp file %s", entry.Name())
	}
}

func TestExportSameSecondFilenamesStayDistinct(t *testing.T) {
	dir := t.TempDir()
	exporter := NewExporter(dir, nil)
	frozen := time.Date(2026, time.March, 17, 10, 30, 0, 0, time.UTC)
	exporter.WithNow(func() time.Time { return frozen })

	payload := lowStockPayload(t, 3)
	first, err := exporter.Export(payload, reports.FormatPrint)
	require.NoError(t, err)
	second, err := exporter.Export(payload, reports.FormatPrint)
	require.NoError(t, err)

	require.NotEqual(t, first.Filename, second.Filename)
	require.Equal(t, first.ByteSize, second.ByteSize, "identical inputs produce structurally identical content")

	a, err := os.ReadFile(first.Path)
	require.NoError(t, err)
	b, err := os.ReadFile(second.Path)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestExportConcurrentSameSecondNeverCollides(t *testing.T) {
	dir := t.TempDir()
	exporter := NewExporter(dir, nil)
	frozen := time.Date(2026, time.March, 17, 10, 30, 0, 0, time.UTC)
	exporter.WithNow(func() time.Time { return frozen })

	payload := lowStockPayload(t, 3)
	const n = 8
	artifacts := make([]Artifact, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			artifacts[i], errs[i] = exporter.Export(payload, reports.FormatPrint)
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		require.False(t, seen[artifacts[i].Filename], "filename %s claimed twice", artifacts[i].Filename)
		seen[artifacts[i].Filename] = true

		// Every artifact must survive with its own full content; an export
		// silently overwritten by a sibling would fail the size check.
		info, err := os.Stat(artifacts[i].Path)
		require.NoError(t, err)
		require.Equal(t, artifacts[i].ByteSize, info.Size())
	}
}

func TestExportSpreadsheetExtension(t *testing.T) {
	exporter := NewExporter(t.TempDir(), nil)
	artifact, err := exporter.Export(lowStockPayload(t, 2), reports.FormatSpreadsheet)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(artifact.Filename, ".xlsx"))
}

func TestExportWriteFailureSurfacesDistinctly(t *testing.T) {
	// A regular file where the export directory should be makes MkdirAll fail.
	base := t.TempDir()
	blocked := filepath.Join(base, "not-a-dir")
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0o644))

	exporter := NewExporter(blocked, nil)
	_, err := exporter.Export(lowStockPayload(t, 2), reports.FormatPrint)
	require.ErrorIs(t, err, shared.ErrExportWriteFailed)
}

func TestFormatByteSize(t *testing.T) {
	require.Equal(t, "512 B", FormatByteSize(512))
	require.Equal(t, "1.0 KB", FormatByteSize(1024))
	require.Equal(t, "12.4 KB", FormatByteSize(12700))
	require.Equal(t, "2.0 MB", FormatByteSize(2*1024*1024))
}
