package db

import (
	"log"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/lexfield/contentpipe/internal/pipeline"
)

// Connect opens the store. DSNs containing "@tcp(" are treated as mysql;
// anything else is handed to the sqlite driver (file path or file::memory:).
func Connect(dsn string) *gorm.DB {
	var (
		gdb *gorm.DB
		err error
	)
	if strings.Contains(dsn, "@tcp(") {
		gdb, err = gorm.Open(mysql.Open(dsn), &gorm.Config{})
	} else {
		gdb, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	}
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}

	if err := gdb.AutoMigrate(
		&pipeline.Job{},
		&pipeline.Post{},
		&pipeline.ResearchSource{},
		&pipeline.TriggerRun{},
	); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	return gdb
}
