package connection

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var errOffline = errors.New("database offline")

// offlineDriver connects but fails every statement.
type offlineDriver struct{}

func (offlineDriver) Open(string) (driver.Conn, error) { return offlineConn{}, nil }

type offlineConn struct{}

func (offlineConn) Prepare(string) (driver.Stmt, error) { return nil, errOffline }
func (offlineConn) Close() error                        { return nil }
func (offlineConn) Begin() (driver.Tx, error)           { return nil, errOffline }

func init() {
	sql.Register("focus-offline", offlineDriver{})
}

func TestGormStoreClosesPoolWhenMigrationFails(t *testing.T) {
	sqlDB, err := sql.Open("focus-offline", "")
	if err != nil {
		t.Fatal(err)
	}
	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{
		Logger:                 gormlogger.Discard,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if _, _, err := gormStore(db); err == nil {
		t.Fatal("expected migration to fail")
	}
	if err := sqlDB.Ping(); err == nil || err.Error() != "sql: database is closed" {
		t.Errorf("expected the pool to be closed, got %v", err)
	}
}
