package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"padaria/internal/infrastructure/mysql"
)

const defaultTestDSN = "root:@tcp(localhost:3306)/padaria_test?parseTime=true"

// AuditDB returns a migrated connection to the MySQL test database named by
// TEST_DB_DSN. The test is skipped when the server is unreachable. Rows
// written by the test are removed on cleanup.
func AuditDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		dsn = defaultTestDSN
	}

	db, err := mysql.Open(dsn)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		t.Skipf("test database not available: %v", err)
	}
	if err := mysql.Migrate(ctx, db); err != nil {
		db.Close()
		t.Fatalf("migrate test database: %v", err)
	}

	t.Cleanup(func() {
		if _, err := db.Exec("DELETE FROM OrderStatusTransitions"); err != nil {
			t.Logf("cleaning OrderStatusTransitions: %v", err)
		}
		db.Close()
	})
	return db
}
