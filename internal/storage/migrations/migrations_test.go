package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLFiles_Embedded(t *testing.T) {
	pg, err := sqlFiles(PostgresFS, "postgres")
	require.NoError(t, err)
	require.NotEmpty(t, pg)
	assert.Equal(t, "001_init.sql", pg[0].name)
	assert.Contains(t, pg[0].body, "upload_sessions")
	assert.Contains(t, pg[0].body, "token_records")

	ch, err := sqlFiles(ClickhouseFS, "clickhouse")
	require.NoError(t, err)
	require.NotEmpty(t, ch)
	assert.Contains(t, ch[0].body, "operation_log")
	assert.NoError(t, validateNoSemicolonInStrings(ch[0].body))
}

func TestSplitStatements(t *testing.T) {
	in := "-- header\nCREATE TABLE a (x Int8);\n\n-- next\nCREATE TABLE b (y Int8);\n"
	stmts := splitStatements(in)
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (x Int8)", stmts[0])
	assert.Equal(t, "CREATE TABLE b (y Int8)", stmts[1])
}

func TestValidateNoSemicolonInStrings(t *testing.T) {
	assert.NoError(t, validateNoSemicolonInStrings("SELECT 'it''s'; SELECT 1;"))
	assert.Error(t, validateNoSemicolonInStrings("SELECT 'a;b'"))
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://user:pw@localhost:9000/minter")
	require.NoError(t, err)
	assert.Equal(t, "minter", db)

	_, err = databaseFromDSN("clickhouse://localhost:9000")
	assert.Error(t, err)
}
