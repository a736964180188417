//go:build postgres_integration

package netload

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ilds/internal/graph"
)

func TestLoadPostgres(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}
	ctx := t.Context()
	db, err := OpenPostgres(ctx, dsn)
	require.NoError(t, err)
	defer db.Close()

	// temp tables live on one connection
	conn, err := db.Conn(ctx)
	require.NoError(t, err)
	defer conn.Close()

	for _, stmt := range []string{
		`CREATE TEMP TABLE hubs (id text PRIMARY KEY)`,
		`CREATE TEMP TABLE roads (from_id text, to_id text, distance double precision, time double precision, congestion double precision)`,
		`INSERT INTO hubs VALUES ('A'), ('B'), ('C')`,
		`INSERT INTO roads VALUES ('A','B',5,10,0.2), ('B','C',5,10,0.2), ('A','C',1,1,2)`,
	} {
		_, err := conn.ExecContext(ctx, stmt)
		require.NoError(t, err, stmt)
	}

	g := graph.New()
	rep, err := LoadPostgres(ctx, conn, g, discard())
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Nodes)
	assert.Equal(t, 2, rep.Edges)
	assert.Len(t, rep.Skipped, 1)
}
