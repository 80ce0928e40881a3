package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"calistenia/internal/datastore"

	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/urfave/cli/v2"
)

func init() {
	// for development
	//nolint:errcheck
	godotenv.Load("../../.env")

	// for production
	//nolint:errcheck
	godotenv.Load("./.env")
}

func main() {
	app := &cli.App{
		Name: "migrate",
		Commands: []*cli.Command{
			commandMigrate(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commandMigrate() *cli.Command {
	return &cli.Command{
		Name:  "up",
		Usage: "create the database tables",
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			db := getDb()

			if err := datastore.CreateTableUserProgress(ctx, db); err != nil {
				return err
			}
			if err := datastore.CreateTableClass(ctx, db); err != nil {
				return err
			}
			if err := datastore.CreateTableCounter(ctx, db); err != nil {
				return err
			}

			fmt.Println("tables ready")
			return nil
		},
	}
}

func getDb() *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(os.Getenv("DB_DSN")),
		pgdriver.WithPassword(os.Getenv("DB_PASSWORD")),
	))
	return bun.NewDB(sqldb, pgdialect.New())
}
