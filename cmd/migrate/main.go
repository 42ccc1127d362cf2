package main

import (
	"database/sql"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/trackforge/assetflow/migrations"
	"github.com/trackforge/assetflow/pkg/configuration"
)

const usage = "usage: migrate [up|down|status]"

func main() {
	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	conf := configuration.Use()
	defer conf.Unload()
	logger := conf.Logger()

	db, err := sql.Open("pgx", conf.Database.Opts)
	if err != nil {
		logger.WithError(err).Fatal("failed to open database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.WithError(err).Error("failed to close database")
		}
	}()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		logger.WithError(err).Fatal("failed to set dialect")
	}

	switch command {
	case "up":
		err = goose.Up(db, "assets")
	case "down":
		err = goose.Down(db, "assets")
	case "status":
		err = goose.Status(db, "assets")
	default:
		log.Fatal(usage)
	}
	if err != nil {
		logger.WithError(err).Fatalf("migration %s failed", command)
	}
}
