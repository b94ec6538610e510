package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	t.Run("all tables exist", func(t *testing.T) {
		expectedTables := []string{
			"market_data",
			"ingestion_checkpoints",
		}

		for _, tableName := range expectedTables {
			var exists bool
			err := testDB.GetRawConn().QueryRow(`
				SELECT EXISTS (
					SELECT FROM information_schema.tables
					WHERE table_schema = 'public'
					AND table_name = $1
				)
			`, tableName).Scan(&exists)

			require.NoError(t, err, "failed to check table existence for %s", tableName)
			assert.True(t, exists, "table %s should exist", tableName)
		}
	})

	t.Run("market_data table has correct columns", func(t *testing.T) {
		expectedColumns := map[string]string{
			"T":           "character varying",
			"v":           "double precision",
			"vw":          "numeric",
			"o":           "numeric",
			"c":           "numeric",
			"h":           "numeric",
			"l":           "numeric",
			"ts":          "timestamp with time zone",
			"n":           "bigint",
			"date":        "date",
			"ingested_at": "timestamp with time zone",
		}

		for column, dataType := range expectedColumns {
			var actualType string
			err := testDB.GetRawConn().QueryRow(`
				SELECT data_type FROM information_schema.columns
				WHERE table_name = 'market_data' AND column_name = $1
			`, column).Scan(&actualType)

			require.NoError(t, err, "column %s should exist", column)
			assert.Equal(t, dataType, actualType, "column %s has wrong type", column)
		}
	})

	t.Run("ingestion_checkpoints table has correct columns", func(t *testing.T) {
		expectedColumns := map[string]string{
			"run_id":        "character varying",
			"api_date":      "date",
			"status":        "character varying",
			"total_tickers": "integer",
			"rows_inserted": "bigint",
			"started_at":    "timestamp with time zone",
			"completed_at":  "timestamp with time zone",
			"error_message": "text",
		}

		for column, dataType := range expectedColumns {
			var actualType string
			err := testDB.GetRawConn().QueryRow(`
				SELECT data_type FROM information_schema.columns
				WHERE table_name = 'ingestion_checkpoints' AND column_name = $1
			`, column).Scan(&actualType)

			require.NoError(t, err, "column %s should exist", column)
			assert.Equal(t, dataType, actualType, "column %s has wrong type", column)
		}
	})

	t.Run("checkpoint status is constrained", func(t *testing.T) {
		_, err := testDB.GetRawConn().Exec(`
			INSERT INTO ingestion_checkpoints (run_id, api_date, status)
			VALUES ('run1', '2024-03-15', 'bogus')
		`)
		assert.Error(t, err, "invalid status should be rejected")
	})
}
