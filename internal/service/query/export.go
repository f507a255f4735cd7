package query

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/querypilot/backend/internal/model/query"
)

// Artifact is a downloadable export of the last query results.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Export serializes the transient results. The empty format picks the
// family default: csv for tabular results, pretty JSON for documents.
// "table" renders a plain-text table for either family.
func (e *Executor) Export(format string) (Artifact, error) {
	e.mu.Lock()
	results := e.results
	e.mu.Unlock()

	if results == nil {
		e.notifyError("No results to export")
		return Artifact{}, ErrNoResults
	}

	if format == "" {
		if results.Kind == query.ResultSQL {
			format = "csv"
		} else {
			format = "json"
		}
	}

	switch format {
	case "csv":
		if results.Kind != query.ResultSQL {
			return Artifact{}, fmt.Errorf("csv export requires tabular results")
		}
		data := renderCSV(results.Table.Columns, results.Table.Rows)
		e.notifySuccess("Results exported as CSV")
		return Artifact{Filename: "sql_results.csv", ContentType: "text/csv", Data: data}, nil

	case "json":
		data, err := renderJSON(results)
		if err != nil {
			return Artifact{}, err
		}
		filename := "nosql_results.json"
		if results.Kind == query.ResultSQL {
			filename = "sql_results.json"
		}
		e.notifySuccess("Results exported as JSON")
		return Artifact{Filename: filename, ContentType: "application/json", Data: data}, nil

	case "table":
		data := renderTable(results)
		e.notifySuccess("Results exported as table")
		return Artifact{Filename: "results.txt", ContentType: "text/plain", Data: data}, nil
	}

	return Artifact{}, fmt.Errorf("unknown export format %q", format)
}

// renderCSV emits a header row from the column list and every value
// double-quoted, matching the shape the frontend download expects.
func renderCSV(columns []string, rows []map[string]any) []byte {
	var b strings.Builder
	b.WriteString(strings.Join(columns, ","))
	b.WriteByte('\n')

	for i, row := range rows {
		values := make([]string, len(columns))
		for j, col := range columns {
			values[j] = fmt.Sprintf("%q", formatValue(row[col]))
		}
		b.WriteString(strings.Join(values, ","))
		if i < len(rows)-1 {
			b.WriteByte('\n')
		}
	}
	return []byte(b.String())
}

func renderJSON(results *query.Result) ([]byte, error) {
	var payload any
	if results.Kind == query.ResultSQL {
		payload = results.Table
	} else {
		payload = results.Documents
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return nil, fmt.Errorf("encode results: %w", err)
	}
	return buf.Bytes(), nil
}

func renderTable(results *query.Result) []byte {
	var buf bytes.Buffer
	t := table.NewWriter()
	t.SetOutputMirror(&buf)
	t.SetStyle(table.StyleLight)

	if results.Kind == query.ResultSQL {
		header := make(table.Row, len(results.Table.Columns))
		for i, col := range results.Table.Columns {
			header[i] = col
		}
		t.AppendHeader(header)
		for _, row := range results.Table.Rows {
			out := make(table.Row, len(results.Table.Columns))
			for i, col := range results.Table.Columns {
				out[i] = formatValue(row[col])
			}
			t.AppendRow(out)
		}
		t.Render()
		fmt.Fprintf(&buf, "(%d rows)\n", len(results.Table.Rows))
		return buf.Bytes()
	}

	// Documents have no fixed column set; render one JSON value per row.
	t.AppendHeader(table.Row{"document"})
	for _, doc := range results.Documents {
		data, err := json.Marshal(doc)
		if err != nil {
			continue
		}
		t.AppendRow(table.Row{string(data)})
	}
	t.Render()
	fmt.Fprintf(&buf, "(%d documents)\n", len(results.Documents))
	return buf.Bytes()
}

func formatValue(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}
