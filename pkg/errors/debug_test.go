package errors

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDumpCollectsChainAndCode(t *testing.T) {
	err := fmt.Errorf("checkout: %w", Remote(CodeConflict, "cart changed"))

	dump := Dump(err)
	assert.Equal(t, CodeConflict, dump.Code)
	assert.True(t, dump.Remote)
	require.Len(t, dump.Chain, 2)
	assert.Nil(t, dump.PG)

	fields := dump.Fields()
	assert.Equal(t, true, fields["error_remote"])
	_, hasPG := fields["pg_code"]
	assert.False(t, hasPG)
}

func TestDumpExtractsPostgresDetail(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "cart_items_cart_beverage_key", TableName: "cart_items"}
	err := Wrap(CodeConflict, pgErr, "insert cart item")

	dump := Dump(err)
	require.NotNil(t, dump.PG)
	assert.Equal(t, "23505", dump.PG.Code)
	assert.Equal(t, "cart_items", dump.PG.Table)
	assert.Equal(t, "cart_items_cart_beverage_key", dump.Fields()["pg_constraint"])
}

func TestDumpNil(t *testing.T) {
	assert.Equal(t, ErrorDump{}, Dump(nil))
}
