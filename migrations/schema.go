package migrations

import (
	"context"
	"errors"
)

// ErrColumnNotFound is returned by DescribeColumn when the column is absent.
var ErrColumnNotFound = errors.New("migrations: column not found")

// Schema is the set of schema-mutation primitives a migration step may use.
// The database package provides the GORM-backed implementation.
type Schema interface {
	HasTable(ctx context.Context, table string) (bool, error)
	CreateTable(ctx context.Context, table string, columns []Column) error
	DropTable(ctx context.Context, table string) error

	HasColumn(ctx context.Context, table, column string) (bool, error)
	// DescribeColumn reports the nullability, uniqueness and value constraint
	// (Type.Values or Type.Format) of an existing column.
	DescribeColumn(ctx context.Context, table, column string) (Column, error)
	AddColumn(ctx context.Context, table string, column Column) error
	// ChangeColumn converges an existing column onto the given definition:
	// type, nullability, default, uniqueness and value constraints.
	ChangeColumn(ctx context.Context, table string, column Column) error
	RemoveColumn(ctx context.Context, table, column string) error

	// Backfill copies source into target for every row where target is NULL
	// and source is not, returning the number of rows touched.
	Backfill(ctx context.Context, table, target, source string) (int64, error)
}

// Kind is the dialect-neutral family of a column type.
type Kind int

const (
	KindIncrements Kind = iota
	KindString
	KindText
	KindTimestamp
)

// DataType describes a column type without committing to a SQL dialect.
type DataType struct {
	Kind Kind
	Size int
	// Values restricts the column to an enumerated set.
	Values []string
	// Format is a POSIX regular expression every non-null value must match.
	Format string
}

// EmailFormat is the address shape enforced on contact columns.
const EmailFormat = `^[^@[:space:]]+@[^@[:space:]]+\.[^@[:space:]]+$`

func Increments() DataType { return DataType{Kind: KindIncrements} }

func String(size int) DataType { return DataType{Kind: KindString, Size: size} }

func Text() DataType { return DataType{Kind: KindText} }

func Timestamp() DataType { return DataType{Kind: KindTimestamp} }

// Enum is a short string column limited to values.
func Enum(values ...string) DataType {
	return DataType{Kind: KindString, Size: 32, Values: values}
}

// Email is a string column whose values must look like an address.
func Email(size int) DataType {
	return DataType{Kind: KindString, Size: size, Format: EmailFormat}
}

// RawDefault is a default expression passed through to the database verbatim.
type RawDefault string

// CurrentTimestamp defaults a timestamp column to the insert time.
const CurrentTimestamp RawDefault = "CURRENT_TIMESTAMP"

// Column is a column definition or, from DescribeColumn, a column's observed state.
type Column struct {
	Name       string
	Type       DataType
	PrimaryKey bool
	Nullable   bool
	Unique     bool
	// Default is nil, a literal value, or a RawDefault.
	Default any
}
