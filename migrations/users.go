package migrations

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

const usersTable = "users"

var (
	legacyRoles = []string{"admin", "editor"}
	staffRoles  = []string{"admin", "editor", "author", "viewer"}
)

func roleColumn(values []string) Column {
	return Column{Name: "role", Type: Enum(values...), Default: "editor"}
}

// CreateUsers creates the users table in its original shape: a required,
// unique username and a two-value role.
func CreateUsers() Migration {
	return Migration{
		ID: "001_create_users",
		Up: []Step{
			{
				Name: "create_users_table",
				Done: tableExists(usersTable),
				Apply: func(ctx context.Context, s Schema) error {
					return s.CreateTable(ctx, usersTable, []Column{
						{Name: "id", Type: Increments(), PrimaryKey: true},
						{Name: "username", Type: String(100), Unique: true},
						{Name: "password", Type: String(255)},
						roleColumn(legacyRoles),
						{Name: "created_at", Type: Timestamp(), Default: CurrentTimestamp},
						{Name: "updated_at", Type: Timestamp(), Default: CurrentTimestamp},
					})
				},
			},
		},
		Down: []Step{
			{
				Name: "drop_users_table",
				Done: not(tableExists(usersTable)),
				Apply: func(ctx context.Context, s Schema) error {
					return s.DropTable(ctx, usersTable)
				},
			},
		},
	}
}

// AddUserContactFields moves users from username-only identities to a
// display name and a required contact email, and widens the role set.
func AddUserContactFields() Migration {
	return Migration{
		ID: "002_user_contact_fields",
		Up: []Step{
			addColumnStep("add_name", Column{Name: "name", Type: String(100), Nullable: true}),
			addColumnStep("add_email", Column{Name: "email", Type: String(255), Nullable: true}),
			{
				Name: "widen_role",
				Apply: func(ctx context.Context, s Schema) error {
					return s.ChangeColumn(ctx, usersTable, roleColumn(staffRoles))
				},
			},
			{
				Name: "backfill_email_from_username",
				Apply: func(ctx context.Context, s Schema) error {
					n, err := s.Backfill(ctx, usersTable, "email", "username")
					if err != nil {
						return err
					}
					if n == 0 {
						return ErrAlreadyApplied
					}
					return nil
				},
			},
			changeColumnStep("require_email", Column{Name: "email", Type: Email(255), Unique: true}),
			changeColumnStep("relax_username", Column{Name: "username", Type: String(100), Nullable: true, Unique: true}),
		},
		Down: []Step{
			removeColumnStep("drop_name", "name"),
			removeColumnStep("drop_email", "email"),
			{
				Name: "narrow_role",
				Apply: func(ctx context.Context, s Schema) error {
					return s.ChangeColumn(ctx, usersTable, roleColumn(legacyRoles))
				},
			},
			changeColumnStep("require_username", Column{Name: "username", Type: String(100), Unique: true}),
		},
	}
}

func tableExists(table string) func(context.Context, Schema) (bool, error) {
	return func(ctx context.Context, s Schema) (bool, error) {
		return s.HasTable(ctx, table)
	}
}

func not(check func(context.Context, Schema) (bool, error)) func(context.Context, Schema) (bool, error) {
	return func(ctx context.Context, s Schema) (bool, error) {
		ok, err := check(ctx, s)
		return !ok, err
	}
}

func addColumnStep(name string, col Column) Step {
	return Step{
		Name: name,
		Done: func(ctx context.Context, s Schema) (bool, error) {
			return s.HasColumn(ctx, usersTable, col.Name)
		},
		Apply: func(ctx context.Context, s Schema) error {
			return s.AddColumn(ctx, usersTable, col)
		},
	}
}

func removeColumnStep(name, column string) Step {
	return Step{
		Name: name,
		Done: func(ctx context.Context, s Schema) (bool, error) {
			ok, err := s.HasColumn(ctx, usersTable, column)
			return !ok, err
		},
		Apply: func(ctx context.Context, s Schema) error {
			return s.RemoveColumn(ctx, usersTable, column)
		},
	}
}

// changeColumnStep is done once nullability, uniqueness and the value
// constraint already match. Type size and default are not compared.
func changeColumnStep(name string, col Column) Step {
	return Step{
		Name: name,
		Done: func(ctx context.Context, s Schema) (bool, error) {
			current, err := s.DescribeColumn(ctx, usersTable, col.Name)
			if errors.Is(err, ErrColumnNotFound) {
				return false, nil
			}
			if err != nil {
				return false, err
			}
			return current.Nullable == col.Nullable &&
				current.Unique == col.Unique &&
				current.Type.Format == col.Type.Format &&
				slices.Equal(current.Type.Values, col.Type.Values), nil
		},
		Apply: func(ctx context.Context, s Schema) error {
			if err := s.ChangeColumn(ctx, usersTable, col); err != nil {
				return fmt.Errorf("change %s.%s: %w", usersTable, col.Name, err)
			}
			return nil
		},
	}
}
