package query

// ResultKind tags which arm of a Result is populated.
type ResultKind string

const (
	ResultSQL   ResultKind = "sql"
	ResultNoSQL ResultKind = "nosql"
)

// TabularResult holds rows keyed by column name, column order preserved.
type TabularResult struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// Document is a single schemaless record returned by a document store.
type Document map[string]any

// Result is the tagged outcome of executing a query: exactly one of
// Table or Documents is set, selected by Kind.
type Result struct {
	Kind      ResultKind     `json:"kind"`
	Table     *TabularResult `json:"table,omitempty"`
	Documents []Document     `json:"documents,omitempty"`
}
