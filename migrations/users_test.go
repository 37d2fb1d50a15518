package migrations

import (
	"context"
	"errors"
	"maps"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func legacyUsers(t *testing.T, usernames ...string) *memSchema {
	t.Helper()
	schema := newMemSchema()
	summary := NewRunner(schema, nil).Up(context.Background(), CreateUsers())
	require.False(t, summary.HasFailures())
	for _, u := range usernames {
		require.NoError(t, schema.insert("users", map[string]any{"username": u, "password": "hash"}))
	}
	return schema
}

func snapshot(s *memSchema) memTable {
	t := s.tables["users"]
	rows := make([]map[string]any, len(t.rows))
	for i, r := range t.rows {
		rows[i] = maps.Clone(r)
	}
	cols := make([]Column, len(t.columns))
	copy(cols, t.columns)
	return memTable{columns: cols, rows: rows, nextID: t.nextID}
}

func outcomes(s Summary) map[string]Outcome {
	out := map[string]Outcome{}
	for _, r := range s.Results {
		out[r.Step] = r.Outcome
	}
	return out
}

func TestCreateUsersIsIdempotent(t *testing.T) {
	schema := legacyUsers(t)
	summary := NewRunner(schema, nil).Up(context.Background(), CreateUsers())
	assert.Equal(t, OutcomeAlreadyApplied, summary.Results[0].Outcome)
}

func TestUserContactFieldsUp(t *testing.T) {
	schema := legacyUsers(t, "ana@studio.test", "ben@studio.test")
	ctx := context.Background()

	summary := NewRunner(schema, nil).Up(ctx, AddUserContactFields())
	require.False(t, summary.HasFailures(), "failures: %+v", summary.Failed())
	assert.Equal(t, map[string]Outcome{
		"add_name":                     OutcomeApplied,
		"add_email":                    OutcomeApplied,
		"widen_role":                   OutcomeApplied,
		"backfill_email_from_username": OutcomeApplied,
		"require_email":                OutcomeApplied,
		"relax_username":               OutcomeApplied,
	}, outcomes(summary))

	assert.Equal(t, []string{"id", "username", "password", "role", "created_at", "updated_at", "name", "email"}, schema.columnNames("users"))

	email, err := schema.DescribeColumn(ctx, "users", "email")
	require.NoError(t, err)
	assert.False(t, email.Nullable)
	assert.True(t, email.Unique)
	assert.Equal(t, EmailFormat, email.Type.Format)

	username, err := schema.DescribeColumn(ctx, "users", "username")
	require.NoError(t, err)
	assert.True(t, username.Nullable)
	assert.True(t, username.Unique)

	role, err := schema.DescribeColumn(ctx, "users", "role")
	require.NoError(t, err)
	assert.Equal(t, []string{"admin", "editor", "author", "viewer"}, role.Type.Values)
	assert.Equal(t, "editor", role.Default)
	assert.False(t, role.Nullable)

	rows := schema.tables["users"].rows
	assert.Equal(t, "ana@studio.test", rows[0]["email"])
	assert.Equal(t, "ben@studio.test", rows[1]["email"])

	// the wider role set and the optional username are usable afterwards
	require.NoError(t, schema.insert("users", map[string]any{"email": "cy@studio.test", "password": "hash", "role": "author"}))
}

func TestUserContactFieldsUpThenDownRestoresOriginalShape(t *testing.T) {
	schema := legacyUsers(t, "ana@studio.test")
	before := snapshot(schema)
	runner := NewRunner(schema, nil)
	ctx := context.Background()

	up := runner.Up(ctx, AddUserContactFields())
	require.False(t, up.HasFailures())

	down := runner.Down(ctx, AddUserContactFields())
	require.False(t, down.HasFailures(), "failures: %+v", down.Failed())
	assert.Equal(t, map[string]Outcome{
		"drop_name":        OutcomeApplied,
		"drop_email":       OutcomeApplied,
		"narrow_role":      OutcomeApplied,
		"require_username": OutcomeApplied,
	}, outcomes(down))

	assert.Equal(t, before, snapshot(schema))

	role, err := schema.DescribeColumn(ctx, "users", "role")
	require.NoError(t, err)
	assert.Equal(t, []string{"admin", "editor"}, role.Type.Values)
}

func TestUserContactFieldsUpTwiceIsStable(t *testing.T) {
	schema := legacyUsers(t, "ana@studio.test")
	runner := NewRunner(schema, nil)
	ctx := context.Background()

	first := runner.Up(ctx, AddUserContactFields())
	require.False(t, first.HasFailures())
	afterFirst := snapshot(schema)

	second := runner.Up(ctx, AddUserContactFields())
	assert.False(t, second.HasFailures(), "failures: %+v", second.Failed())
	assert.Equal(t, map[string]Outcome{
		"add_name":                     OutcomeAlreadyApplied,
		"add_email":                    OutcomeAlreadyApplied,
		"widen_role":                   OutcomeApplied,
		"backfill_email_from_username": OutcomeAlreadyApplied,
		"require_email":                OutcomeAlreadyApplied,
		"relax_username":               OutcomeAlreadyApplied,
	}, outcomes(second))
	assert.Equal(t, afterFirst, snapshot(schema))
}

func TestUserContactFieldsResumesPartiallyAppliedSchema(t *testing.T) {
	schema := legacyUsers(t, "ana@studio.test")
	ctx := context.Background()
	require.NoError(t, schema.AddColumn(ctx, "users", Column{Name: "email", Type: String(255), Nullable: true}))

	summary := NewRunner(schema, nil).Up(ctx, AddUserContactFields())
	require.False(t, summary.HasFailures())
	assert.Equal(t, OutcomeApplied, outcomes(summary)["add_name"])
	assert.Equal(t, OutcomeAlreadyApplied, outcomes(summary)["add_email"])
	assert.Equal(t, OutcomeApplied, outcomes(summary)["backfill_email_from_username"])
}

func TestUserContactFieldsAddsMissingEmailFormat(t *testing.T) {
	// email already required and unique, but without the address check
	schema := legacyUsers(t)
	ctx := context.Background()
	require.NoError(t, schema.AddColumn(ctx, "users", Column{Name: "email", Type: String(255), Unique: true}))

	summary := NewRunner(schema, nil).Up(ctx, AddUserContactFields())
	require.False(t, summary.HasFailures(), "failures: %+v", summary.Failed())
	assert.Equal(t, OutcomeAlreadyApplied, outcomes(summary)["add_email"])
	assert.Equal(t, OutcomeApplied, outcomes(summary)["require_email"])

	email, err := schema.DescribeColumn(ctx, "users", "email")
	require.NoError(t, err)
	assert.Equal(t, EmailFormat, email.Type.Format)
	assert.Error(t, schema.insert("users", map[string]any{"username": "cy", "email": "not-an-address", "password": "hash"}))
}

func TestUserContactFieldsSurfacesGenuineFailures(t *testing.T) {
	// a legacy username that is not an address cannot satisfy the email format
	schema := legacyUsers(t, "ana@studio.test", "legacy-bob")

	summary := NewRunner(schema, nil).Up(context.Background(), AddUserContactFields())

	failed := summary.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "require_email", failed[0].Step)
	assert.Contains(t, failed[0].Reason(), "legacy-bob")
	assert.Equal(t, OutcomeApplied, outcomes(summary)["relax_username"])

	email, err := schema.DescribeColumn(context.Background(), "users", "email")
	require.NoError(t, err)
	assert.True(t, email.Nullable, "email stays nullable when tightening fails")
}

func TestUserContactFieldsReportsWideningFailure(t *testing.T) {
	schema := legacyUsers(t, "ana@studio.test")
	schema.failOn["change:role"] = errors.New("permission denied for table users")

	summary := NewRunner(schema, nil).Up(context.Background(), AddUserContactFields())

	outcome := outcomes(summary)
	assert.Equal(t, OutcomeFailed, outcome["widen_role"])
	assert.Equal(t, OutcomeApplied, outcome["require_email"])
	assert.Equal(t, "permission denied for table users", summary.Failed()[0].Reason())
}

func TestUserContactFieldsDownFailsToNarrowWhenNewRolesAreInUse(t *testing.T) {
	schema := legacyUsers(t, "ana@studio.test")
	runner := NewRunner(schema, nil)
	ctx := context.Background()

	require.False(t, runner.Up(ctx, AddUserContactFields()).HasFailures())
	require.NoError(t, schema.insert("users", map[string]any{"username": "cy", "email": "cy@studio.test", "password": "hash", "role": "viewer"}))

	down := runner.Down(ctx, AddUserContactFields())
	outcome := outcomes(down)
	assert.Equal(t, OutcomeApplied, outcome["drop_name"])
	assert.Equal(t, OutcomeApplied, outcome["drop_email"])
	assert.Equal(t, OutcomeFailed, outcome["narrow_role"])
	assert.Equal(t, OutcomeApplied, outcome["require_username"])
}

func TestRegistryOrder(t *testing.T) {
	all := All()
	require.Len(t, all, 2)
	assert.Equal(t, "001_create_users", all[0].ID)
	assert.Equal(t, "002_user_contact_fields", all[1].ID)

	m, ok := Find("002_user_contact_fields")
	require.True(t, ok)
	assert.Len(t, m.Up, 6)
	assert.Len(t, m.Down, 4)

	_, ok = Find("999_missing")
	assert.False(t, ok)
}
