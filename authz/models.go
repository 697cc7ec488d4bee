// authz/models.go
package authz

import "sort"

// ModelDescriptor describes one entity that data rules may target: its SQL
// table and the set of columns rules are allowed to reference.
type ModelDescriptor struct {
	Table   string
	Columns map[string]struct{}
}

// ModelRegistry is the static allow-list of rule targets. It is populated
// once at startup; rule model and column names are validated against it on
// every compilation, not only at rule creation, because the registry and the
// stored rules evolve independently.
type ModelRegistry struct {
	models          map[string]ModelDescriptor
	excludedColumns map[string]struct{}
}

func NewModelRegistry(columnExclude []string) *ModelRegistry {
	excluded := make(map[string]struct{}, len(columnExclude))
	for _, col := range columnExclude {
		excluded[col] = struct{}{}
	}
	return &ModelRegistry{
		models:          make(map[string]ModelDescriptor),
		excludedColumns: excluded,
	}
}

// Register adds a rule target. Excluded columns are filtered out here so the
// compiler only ever sees permitted ones.
func (r *ModelRegistry) Register(name, table string, columns []string) {
	allowed := make(map[string]struct{}, len(columns))
	for _, col := range columns {
		if _, skip := r.excludedColumns[col]; skip {
			continue
		}
		allowed[col] = struct{}{}
	}
	r.models[name] = ModelDescriptor{Table: table, Columns: allowed}
}

// Lookup returns the descriptor for a model name
func (r *ModelRegistry) Lookup(name string) (ModelDescriptor, bool) {
	desc, ok := r.models[name]
	return desc, ok
}

// ModelNames returns the registered model names, sorted
func (r *ModelRegistry) ModelNames() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasColumn reports whether the model allows rules on the column
func (d ModelDescriptor) HasColumn(column string) bool {
	_, ok := d.Columns[column]
	return ok
}

// ColumnNames returns the model's permitted columns, sorted
func (d ModelDescriptor) ColumnNames() []string {
	columns := make([]string, 0, len(d.Columns))
	for column := range d.Columns {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	return columns
}
