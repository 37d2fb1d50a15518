package database

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"studio-site-backend/migrations"

	"gorm.io/gorm"
)

// Schema implements migrations.Schema on top of a GORM postgres connection.
type Schema struct {
	db *gorm.DB
}

var _ migrations.Schema = (*Schema)(nil)

func NewSchema(db *gorm.DB) *Schema {
	return &Schema{db: db}
}

func (s *Schema) HasTable(ctx context.Context, table string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Raw(
		"SELECT count(*) FROM information_schema.tables WHERE table_schema = CURRENT_SCHEMA() AND table_name = ? AND table_type = 'BASE TABLE'",
		table,
	).Scan(&count).Error
	return count > 0, err
}

func (s *Schema) CreateTable(ctx context.Context, table string, columns []migrations.Column) error {
	defs := make([]string, 0, len(columns))
	for _, col := range columns {
		defs = append(defs, columnDefinition(table, col))
	}
	sql := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table), strings.Join(defs, ", "))
	return s.db.WithContext(ctx).Exec(sql).Error
}

func (s *Schema) DropTable(ctx context.Context, table string) error {
	return s.db.WithContext(ctx).Exec("DROP TABLE " + quoteIdent(table)).Error
}

func (s *Schema) HasColumn(ctx context.Context, table, column string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Raw(
		"SELECT count(*) FROM information_schema.columns WHERE table_schema = CURRENT_SCHEMA() AND table_name = ? AND column_name = ?",
		table, column,
	).Scan(&count).Error
	return count > 0, err
}

func (s *Schema) DescribeColumn(ctx context.Context, table, column string) (migrations.Column, error) {
	m := s.db.WithContext(ctx).Migrator()
	types, err := m.ColumnTypes(table)
	if err != nil {
		return migrations.Column{}, err
	}

	for _, ct := range types {
		if ct.Name() != column {
			continue
		}
		nullable, _ := ct.Nullable()
		unique, err := s.hasConstraint(ctx, table, uniqueName(table, column))
		if err != nil {
			return migrations.Column{}, err
		}
		check, err := s.constraintDef(ctx, table, checkName(table, column))
		if err != nil {
			return migrations.Column{}, err
		}

		described := migrations.Column{Name: column, Nullable: nullable, Unique: unique}
		described.Type.Values, described.Type.Format = parseCheck(check)
		return described, nil
	}

	return migrations.Column{}, fmt.Errorf("%w: %s.%s", migrations.ErrColumnNotFound, table, column)
}

func (s *Schema) hasConstraint(ctx context.Context, table, name string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Raw(
		"SELECT count(*) FROM information_schema.table_constraints WHERE constraint_schema = CURRENT_SCHEMA() AND table_name = ? AND constraint_name = ?",
		table, name,
	).Scan(&count).Error
	return count > 0, err
}

// constraintDef returns the definition of a check constraint, or "" when
// the table has none by that name.
func (s *Schema) constraintDef(ctx context.Context, table, name string) (string, error) {
	var defs []string
	err := s.db.WithContext(ctx).Raw(
		"SELECT pg_get_constraintdef(oid) FROM pg_constraint WHERE contype = 'c' AND conrelid = ?::regclass AND conname = ?",
		quoteIdent(table), name,
	).Scan(&defs).Error
	if err != nil || len(defs) == 0 {
		return "", err
	}
	return defs[0], nil
}

var literalPattern = regexp.MustCompile(`'((?:[^']|'')*)'`)

// parseCheck recovers the value set or format from a check constraint as
// rendered by pg_get_constraintdef, for the two shapes checkExpression writes:
//
//	CHECK (((role)::text = ANY ((ARRAY['admin'::character varying, ...])::text[])))
//	CHECK (((email)::text ~* '^...$'::text))
func parseCheck(def string) (values []string, format string) {
	if def == "" {
		return nil, ""
	}
	matches := literalPattern.FindAllStringSubmatch(def, -1)
	literals := make([]string, len(matches))
	for i, m := range matches {
		literals[i] = strings.ReplaceAll(m[1], "''", "'")
	}
	if strings.Contains(def, "~*") {
		if len(literals) > 0 {
			format = literals[0]
		}
		return nil, format
	}
	return literals, ""
}

func (s *Schema) AddColumn(ctx context.Context, table string, col migrations.Column) error {
	sql := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", quoteIdent(table), columnDefinition(table, col))
	return s.db.WithContext(ctx).Exec(sql).Error
}

// ChangeColumn rewrites the column's type and constraints in one transaction,
// so a constraint the existing rows violate leaves the column untouched.
func (s *Schema) ChangeColumn(ctx context.Context, table string, col migrations.Column) error {
	t, c := quoteIdent(table), quoteIdent(col.Name)
	check, unique := checkName(table, col.Name), uniqueName(table, col.Name)

	statements := []string{
		fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT IF EXISTS %s", t, quoteIdent(check)),
		fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s", t, c, sqlType(col.Type)),
	}

	if col.Nullable {
		statements = append(statements, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP NOT NULL", t, c))
	} else {
		statements = append(statements, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET NOT NULL", t, c))
	}

	if col.Default == nil {
		statements = append(statements, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT", t, c))
	} else {
		statements = append(statements, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s", t, c, defaultLiteral(col.Default)))
	}

	statements = append(statements, fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT IF EXISTS %s", t, quoteIdent(unique)))
	if col.Unique {
		statements = append(statements, fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s UNIQUE (%s)", t, quoteIdent(unique), c))
	}

	if expr := checkExpression(col); expr != "" {
		statements = append(statements, fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s)", t, quoteIdent(check), expr))
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, stmt := range statements {
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Schema) RemoveColumn(ctx context.Context, table, column string) error {
	return s.db.WithContext(ctx).Migrator().DropColumn(table, column)
}

func (s *Schema) Backfill(ctx context.Context, table, target, source string) (int64, error) {
	sql := fmt.Sprintf("UPDATE %s SET %s = %s WHERE %s IS NULL AND %s IS NOT NULL",
		quoteIdent(table), quoteIdent(target), quoteIdent(source), quoteIdent(target), quoteIdent(source))
	result := s.db.WithContext(ctx).Exec(sql)
	return result.RowsAffected, result.Error
}

func columnDefinition(table string, col migrations.Column) string {
	var b strings.Builder
	b.WriteString(quoteIdent(col.Name))
	b.WriteString(" ")
	b.WriteString(sqlType(col.Type))

	if col.PrimaryKey {
		b.WriteString(" PRIMARY KEY")
		return b.String()
	}
	if !col.Nullable {
		b.WriteString(" NOT NULL")
	}
	if col.Default != nil {
		b.WriteString(" DEFAULT ")
		b.WriteString(defaultLiteral(col.Default))
	}
	if col.Unique {
		fmt.Fprintf(&b, " CONSTRAINT %s UNIQUE", quoteIdent(uniqueName(table, col.Name)))
	}
	if expr := checkExpression(col); expr != "" {
		fmt.Fprintf(&b, " CONSTRAINT %s CHECK (%s)", quoteIdent(checkName(table, col.Name)), expr)
	}
	return b.String()
}

func sqlType(t migrations.DataType) string {
	switch t.Kind {
	case migrations.KindIncrements:
		return "BIGSERIAL"
	case migrations.KindText:
		return "TEXT"
	case migrations.KindTimestamp:
		return "TIMESTAMPTZ"
	default:
		size := t.Size
		if size <= 0 {
			size = 255
		}
		return fmt.Sprintf("VARCHAR(%d)", size)
	}
}

func checkExpression(col migrations.Column) string {
	c := quoteIdent(col.Name)
	switch {
	case len(col.Type.Values) > 0:
		values := make([]string, len(col.Type.Values))
		for i, v := range col.Type.Values {
			values[i] = quoteLiteral(v)
		}
		return fmt.Sprintf("%s IN (%s)", c, strings.Join(values, ", "))
	case col.Type.Format != "":
		return fmt.Sprintf("%s ~* %s", c, quoteLiteral(col.Type.Format))
	default:
		return ""
	}
}

func defaultLiteral(v any) string {
	switch d := v.(type) {
	case migrations.RawDefault:
		return string(d)
	case string:
		return quoteLiteral(d)
	case bool:
		if d {
			return "TRUE"
		}
		return "FALSE"
	default:
		return fmt.Sprint(d)
	}
}

// Postgres names column constraints <table>_<column>_key / _check by default;
// the same names are used so constraints created either way are found.
func uniqueName(table, column string) string { return table + "_" + column + "_key" }

func checkName(table, column string) string { return table + "_" + column + "_check" }

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteLiteral(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}
