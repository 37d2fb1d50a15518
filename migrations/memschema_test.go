package migrations

import (
	"context"
	"fmt"
	"regexp"
	"slices"
)

// memSchema is an in-memory Schema that enforces the same column rules the
// database would: NOT NULL, UNIQUE, enumerated values and value formats.
type memSchema struct {
	tables map[string]*memTable
	// failOn makes the named operation fail, keyed by "op:column".
	failOn map[string]error
}

type memTable struct {
	columns []Column
	rows    []map[string]any
	nextID  int
}

func newMemSchema() *memSchema {
	return &memSchema{tables: map[string]*memTable{}, failOn: map[string]error{}}
}

func (m *memSchema) table(name string) (*memTable, error) {
	t, ok := m.tables[name]
	if !ok {
		return nil, fmt.Errorf("relation %q does not exist", name)
	}
	return t, nil
}

func (t *memTable) index(column string) int {
	return slices.IndexFunc(t.columns, func(c Column) bool { return c.Name == column })
}

func (m *memSchema) injected(op, column string) error {
	return m.failOn[op+":"+column]
}

func (m *memSchema) HasTable(_ context.Context, table string) (bool, error) {
	_, ok := m.tables[table]
	return ok, nil
}

func (m *memSchema) CreateTable(_ context.Context, table string, columns []Column) error {
	if _, ok := m.tables[table]; ok {
		return fmt.Errorf("relation %q already exists", table)
	}
	m.tables[table] = &memTable{columns: slices.Clone(columns)}
	return nil
}

func (m *memSchema) DropTable(_ context.Context, table string) error {
	if _, err := m.table(table); err != nil {
		return err
	}
	delete(m.tables, table)
	return nil
}

func (m *memSchema) HasColumn(_ context.Context, table, column string) (bool, error) {
	t, err := m.table(table)
	if err != nil {
		return false, err
	}
	return t.index(column) >= 0, nil
}

func (m *memSchema) DescribeColumn(_ context.Context, table, column string) (Column, error) {
	t, err := m.table(table)
	if err != nil {
		return Column{}, err
	}
	i := t.index(column)
	if i < 0 {
		return Column{}, ErrColumnNotFound
	}
	return t.columns[i], nil
}

func (m *memSchema) AddColumn(_ context.Context, table string, column Column) error {
	if err := m.injected("add", column.Name); err != nil {
		return err
	}
	t, err := m.table(table)
	if err != nil {
		return err
	}
	if t.index(column.Name) >= 0 {
		return fmt.Errorf("column %q of relation %q already exists", column.Name, table)
	}
	if !column.Nullable && column.Default == nil && len(t.rows) > 0 {
		return fmt.Errorf("column %q contains null values", column.Name)
	}
	t.columns = append(t.columns, column)
	for _, row := range t.rows {
		row[column.Name] = literalDefault(column.Default)
	}
	return nil
}

func (m *memSchema) ChangeColumn(_ context.Context, table string, column Column) error {
	if err := m.injected("change", column.Name); err != nil {
		return err
	}
	t, err := m.table(table)
	if err != nil {
		return err
	}
	i := t.index(column.Name)
	if i < 0 {
		return fmt.Errorf("column %q of relation %q does not exist", column.Name, table)
	}
	if err := validateRows(t.rows, column); err != nil {
		return err
	}
	t.columns[i] = column
	return nil
}

func (m *memSchema) RemoveColumn(_ context.Context, table, column string) error {
	t, err := m.table(table)
	if err != nil {
		return err
	}
	i := t.index(column)
	if i < 0 {
		return fmt.Errorf("column %q of relation %q does not exist", column, table)
	}
	t.columns = slices.Delete(t.columns, i, i+1)
	for _, row := range t.rows {
		delete(row, column)
	}
	return nil
}

func (m *memSchema) Backfill(_ context.Context, table, target, source string) (int64, error) {
	if err := m.injected("backfill", target); err != nil {
		return 0, err
	}
	t, err := m.table(table)
	if err != nil {
		return 0, err
	}
	if t.index(target) < 0 || t.index(source) < 0 {
		return 0, fmt.Errorf("column %q or %q does not exist", target, source)
	}
	var n int64
	for _, row := range t.rows {
		if row[target] == nil && row[source] != nil {
			row[target] = row[source]
			n++
		}
	}
	return n, nil
}

// insert adds a row, applying defaults and the column rules of the table.
func (m *memSchema) insert(table string, values map[string]any) error {
	t, err := m.table(table)
	if err != nil {
		return err
	}
	t.nextID++
	row := map[string]any{}
	for _, c := range t.columns {
		v, ok := values[c.Name]
		switch {
		case c.PrimaryKey:
			v = t.nextID
		case !ok:
			v = literalDefault(c.Default)
		}
		row[c.Name] = v
	}
	for name := range values {
		if t.index(name) < 0 {
			return fmt.Errorf("column %q of relation %q does not exist", name, table)
		}
	}
	candidate := append(slices.Clone(t.rows), row)
	for _, c := range t.columns {
		if err := validateRows(candidate, c); err != nil {
			return err
		}
	}
	t.rows = append(t.rows, row)
	return nil
}

func (m *memSchema) columnNames(table string) []string {
	t := m.tables[table]
	names := make([]string, 0, len(t.columns))
	for _, c := range t.columns {
		names = append(names, c.Name)
	}
	return names
}

func literalDefault(v any) any {
	if _, raw := v.(RawDefault); raw {
		return "now"
	}
	return v
}

func validateRows(rows []map[string]any, c Column) error {
	seen := map[any]bool{}
	var format *regexp.Regexp
	if c.Type.Format != "" {
		format = regexp.MustCompile(c.Type.Format)
	}
	for _, row := range rows {
		v := row[c.Name]
		if v == nil {
			if !c.Nullable && !c.PrimaryKey {
				return fmt.Errorf("column %q contains null values", c.Name)
			}
			continue
		}
		if c.Unique || c.PrimaryKey {
			if seen[v] {
				return fmt.Errorf("duplicate key value violates unique constraint on %q", c.Name)
			}
			seen[v] = true
		}
		if len(c.Type.Values) > 0 && !slices.Contains(c.Type.Values, fmt.Sprint(v)) {
			return fmt.Errorf("check constraint on %q violated by %v", c.Name, v)
		}
		if format != nil && !format.MatchString(fmt.Sprint(v)) {
			return fmt.Errorf("check constraint on %q violated by %v", c.Name, v)
		}
	}
	return nil
}
