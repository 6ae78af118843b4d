package graphdb

import (
	"strings"

	"github.com/olekukonko/tablewriter"
)

// Record is one output row: dict-like access over a fixed column set,
// ported from contextgraph.query_result.QueryRecord's Mapping
// interface (keys/values/items/get/to_dict), adapted to Go idiom.
type Record struct {
	columns []string
	values  Binding
}

// Get returns the value bound to a column name.
func (r Record) Get(column string) (Value, bool) {
	v, ok := r.values[column]
	return v, ok
}

// Value returns the value bound to a column name, or Null if absent.
func (r Record) Value(column string) Value {
	return r.values[column]
}

// At returns the value at a positional column index.
func (r Record) At(i int) Value {
	if i < 0 || i >= len(r.columns) {
		return Null
	}
	return r.values[r.columns[i]]
}

// ToMap returns the record as a plain map of native Go values.
func (r Record) ToMap() map[string]interface{} {
	out := make(map[string]interface{}, len(r.columns))
	for _, c := range r.columns {
		out[c] = r.values[c].ToNative()
	}
	return out
}

// Result is the outcome of one executed query: an ordered column list
// and the matching rows, ported from contextgraph.query_result.QueryResult.
type Result struct {
	Columns []string
	Records []Record
}

// NewResult builds a Result from executor output.
func NewResult(columns []string, rows []Binding) *Result {
	records := make([]Record, len(rows))
	for i, row := range rows {
		records[i] = Record{columns: columns, values: row}
	}
	return &Result{Columns: columns, Records: records}
}

// Len returns the number of rows.
func (r *Result) Len() int { return len(r.Records) }

// Single returns the only record in the result, erroring if the
// result does not contain exactly one row.
func (r *Result) Single() (Record, error) {
	if len(r.Records) != 1 {
		return Record{}, ErrNotFound
	}
	return r.Records[0], nil
}

// ToDictList converts every record to a plain map, mirroring
// contextgraph.query_result.QueryResult.to_dict_list.
func (r *Result) ToDictList() []map[string]interface{} {
	out := make([]map[string]interface{}, len(r.Records))
	for i, rec := range r.Records {
		out[i] = rec.ToMap()
	}
	return out
}

// ToTable renders the result as an ASCII table via tablewriter,
// mirroring contextgraph.query_result.QueryResult.to_table but
// rendered the way the teacher's REPL prints node/edge listings.
func (r *Result) ToTable() string {
	var sb strings.Builder
	table := tablewriter.NewWriter(&sb)
	table.Header(r.Columns)
	for _, rec := range r.Records {
		row := make([]string, len(r.Columns))
		for i, c := range r.Columns {
			row[i] = rec.Value(c).String()
		}
		_ = table.Append(row)
	}
	_ = table.Render()
	return sb.String()
}
