package timescaledb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/chrissnell/blmheader/internal/database"
	"github.com/chrissnell/blmheader/pkg/timeutil"
)

// dryRunDB returns a gorm handle that renders SQL without a server.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.Open("host=localhost user=blm dbname=blm sslmode=disable"), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)
	return db
}

func TestSearchQuery(t *testing.T) {
	db := dryRunDB(t)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var names []string
		return searchQuery(tx, "BLM*:LOSS_RS09").Pluck("name", &names)
	})
	assert.Contains(t, sql, `FROM "signals"`)
	assert.Contains(t, sql, `name LIKE 'BLM%:LOSS\_RS09' ESCAPE '\'`)
	assert.Contains(t, sql, "ORDER BY name")
}

func TestRangeQuery(t *testing.T) {
	db := dryRunDB(t)
	w := timeutil.Window{
		Start: time.Date(2018, 5, 1, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2018, 5, 1, 11, 0, 0, 0, time.UTC),
	}

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var rows []database.SignalSample
		return rangeQuery(tx, []string{"A:LOSS_RS09", "B:LOSS_RS09"}, w).Order("name, time").Find(&rows)
	})
	assert.Contains(t, sql, `FROM "signal_samples"`)
	assert.Contains(t, sql, `name IN ('A:LOSS_RS09','B:LOSS_RS09')`)
	assert.Contains(t, sql, "time BETWEEN '2018-05-01 10:00:00")
	assert.Contains(t, sql, "ORDER BY name, time")
}
