// Command importer loads questions from a JSON or .xlsx file into the
// configured backend.
//
//	importer -file questions.xlsx [-sheet Sheet1] [-dry-run]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gisa-quiz/backend/internal/config"
	"github.com/gisa-quiz/backend/internal/importer"
	"github.com/gisa-quiz/backend/internal/models"
	"github.com/gisa-quiz/backend/internal/questions"
	"github.com/gisa-quiz/backend/internal/stores"
)

func main() {
	file := flag.String("file", "", "question file (.json or .xlsx)")
	format := flag.String("format", "", "json or xlsx (default: from file extension)")
	sheet := flag.String("sheet", "", "spreadsheet sheet name (default: first sheet)")
	dryRun := flag.Bool("dry-run", false, "validate only, do not write")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	f, err := os.Open(*file)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", *file, err)
	}
	defer f.Close()

	if *format == "" {
		*format = strings.TrimPrefix(strings.ToLower(filepath.Ext(*file)), ".")
	}

	var (
		parsed []models.Question
		result models.ImportResult
	)
	switch *format {
	case "xlsx":
		parsed, result, err = importer.ParseXLSX(f, *sheet)
	case "json":
		parsed, result, err = importer.ParseJSON(f)
	default:
		log.Fatalf("Unsupported format %q (want json or xlsx)", *format)
	}
	if err != nil {
		log.Fatalf("Failed to parse %s: %v", *file, err)
	}

	for _, e := range result.Errors {
		log.Printf("[importer] skipped %s", e)
	}
	fmt.Printf("%d valid, %d skipped\n", len(parsed), result.Skipped)

	if *dryRun {
		return
	}

	cfg := config.Load()
	store, err := stores.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to open %s backend: %v", cfg.Backend, err)
	}
	defer store.Close()

	result, err = questions.NewService(store, nil).Import(context.Background(), parsed, result)
	if err != nil {
		log.Fatalf("Import into %s backend failed: %v", store.Name(), err)
	}
	fmt.Printf("%d questions imported into %s backend\n", result.Imported, store.Name())
}
