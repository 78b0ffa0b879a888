package main

// Sweep orphaned document mappings and their chat transcripts, i.e. rows
// whose stored blob was deleted:
//   go run ./cmd/cleanup -user <userId>
//   go run ./cmd/cleanup -all

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"

	"docchat-backend/internal/bootstrap"
	"docchat-backend/internal/shared/config"
)

func main() {
	userID := flag.String("user", "", "sweep a single user's orphans")
	all := flag.Bool("all", false, "sweep every user with mappings")
	flag.Parse()

	if *userID == "" && !*all {
		log.Printf("either -user or -all is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}

	ctx := context.Background()

	userIDs := []string{*userID}
	if *all {
		if app.DB == nil {
			log.Fatalf("-all requires DATABASE_URL")
		}
		userIDs, err = listMappedUsers(ctx, app.DB)
		if err != nil {
			log.Fatalf("list users: %v", err)
		}
	}

	total := 0
	for _, id := range userIDs {
		purged, err := app.Session.PurgeOrphans(ctx, id)
		if err != nil {
			log.Fatalf("purge orphans for %s: %v", id, err)
		}
		if purged > 0 {
			log.Printf("user %s: purged %d orphaned mapping(s)", id, purged)
		}
		total += purged
	}
	log.Printf("done: purged %d orphaned mapping(s)", total)
}

func listMappedUsers(ctx context.Context, sqlDB *sql.DB) ([]string, error) {
	rows, err := sqlDB.QueryContext(ctx, `SELECT DISTINCT user_id FROM document_mappings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
