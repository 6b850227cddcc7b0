package db

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"github.com/owlist/owlist/internal/model"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Init opens (or creates) the sqlite database at storagePath and migrates
// the schema. The unique indexes on content(source, external_id) and
// user_content(user_id, content_id) are created here; the services rely on
// them for conflict handling.
func Init(storagePath string) (*gorm.DB, error) {
	if storagePath != ":memory:" {
		dir := filepath.Dir(storagePath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	gdb, err := gorm.Open(sqlite.Open(storagePath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	// sqlite allows a single writer; one connection avoids SQLITE_BUSY
	// under the concurrent first-sight insert path.
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access underlying connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := gdb.AutoMigrate(&model.Content{}, &model.UserContent{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return gdb, nil
}

func Close(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
