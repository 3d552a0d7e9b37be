/*
main.go - Offline batch code generation

PURPOSE:
  Mints redeemable codes ahead of a print run and exports them to CSV
  for the print shop. Two batches by default:

    BOTTLE-XXXXXX    repeatable, 25 points, 24h cooldown per user
    SPECIAL-XXXXXXXX single-use, 50 points

COMMAND-LINE FLAGS:
  -db       SQLite database path
  -generic  number of repeatable codes (default 100)
  -unique   number of single-use codes (default 10)
  -out      CSV export path (default qr-codes-export.csv)
*/
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/loop/rewards-engine/points"
	"github.com/loop/rewards-engine/redeem"
	"github.com/loop/rewards-engine/store/sqlite"
)

func main() {
	dbPath := flag.String("db", "rewards.db", "SQLite database path")
	genericCount := flag.Int("generic", 100, "number of repeatable codes")
	uniqueCount := flag.Int("unique", 10, "number of single-use codes")
	outPath := flag.String("out", "qr-codes-export.csv", "CSV export path")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Error("failed to open database", "path", *dbPath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	gen := redeem.NewGenerator(store)

	var all []redeem.Code

	log.Info("generating repeatable codes", "count", *genericCount)
	generic, err := gen.Generate(ctx, redeem.BatchSpec{
		Count:       *genericCount,
		Prefix:      "BOTTLE",
		LabelPrefix: "Bottle Code",
		TokenLength: 6,
		Value:       points.NewPoints(25),
		SingleUse:   false,
	})
	if err != nil {
		log.Error("generation failed", "error", err)
		os.Exit(1)
	}
	all = append(all, generic...)

	log.Info("generating single-use codes", "count", *uniqueCount)
	unique, err := gen.Generate(ctx, redeem.BatchSpec{
		Count:       *uniqueCount,
		Prefix:      "SPECIAL",
		LabelPrefix: "Special Code",
		TokenLength: 8,
		Value:       points.NewPoints(50),
		SingleUse:   true,
	})
	if err != nil {
		log.Error("generation failed", "error", err)
		os.Exit(1)
	}
	all = append(all, unique...)

	out, err := os.Create(*outPath)
	if err != nil {
		log.Error("failed to create export file", "path", *outPath, "error", err)
		os.Exit(1)
	}
	defer out.Close()

	if err := redeem.WriteCSV(out, all); err != nil {
		log.Error("failed to write CSV", "error", err)
		os.Exit(1)
	}

	log.Info("done",
		"generic", len(generic),
		"unique", len(unique),
		"total", len(all),
		"csv", *outPath)
}
