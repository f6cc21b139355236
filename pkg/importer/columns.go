package importer

import "sort"

// DefaultColumnType is used for every field without an override.
const DefaultColumnType = "TEXT"

// Column is one entry of a table definition. A []Column keeps header order.
type Column struct {
	Name string
	Type string
}

// ResolveColumns pairs every field with its override type, or
// DefaultColumnType when there is none. Order follows fields.
func ResolveColumns(fields []string, overrides map[string]string) []Column {
	cols := make([]Column, len(fields))
	for i, name := range fields {
		typ, ok := overrides[name]
		if !ok {
			typ = DefaultColumnType
		}
		cols[i] = Column{Name: name, Type: typ}
	}
	return cols
}

// UnusedOverrides returns the override keys that name no field, sorted.
func UnusedOverrides(fields []string, overrides map[string]string) []string {
	if len(overrides) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		seen[f] = struct{}{}
	}
	var unused []string
	for k := range overrides {
		if _, ok := seen[k]; !ok {
			unused = append(unused, k)
		}
	}
	sort.Strings(unused)
	return unused
}

// ColumnNames returns the names of cols in order.
func ColumnNames(cols []Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}
