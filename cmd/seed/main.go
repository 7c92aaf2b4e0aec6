package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/hendrik2009/hearo-backend/config"
	"github.com/hendrik2009/hearo-backend/internal/app/model"
	"github.com/hendrik2009/hearo-backend/internal/app/repository"
	"github.com/hendrik2009/hearo-backend/internal/app/service"
	"github.com/hendrik2009/hearo-backend/internal/db"
	"github.com/xuri/excelize/v2"
)

// Bulk-loads tag bindings from an xlsx file with the columns
// uid | playlist_uri | last_track_uri | last_pos_ms (header row expected).
// The whole batch is applied as a single transaction; re-running the same
// file only refreshes updated_at.
func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <xlsx_file_path>")
	}

	filePath := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	bindingRepo := repository.NewTagBindingRepository(db.GetDB())
	bindingService := service.NewBindingService(bindingRepo, nil, nil)

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	bindings, skipped, err := readBindingsFromXLSX(filePath)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	fmt.Printf("Bindings to import: %d (skipped rows: %d)\n", len(bindings), skipped)

	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	seeded, err := bindingService.SeedBatch(context.Background(), bindings)
	if err != nil {
		log.Fatal("Failed to seed bindings:", err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Total bindings imported: %d\n", seeded)
}

func readBindingsFromXLSX(filePath string) ([]model.TagBinding, int, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, 0, fmt.Errorf("no sheets found in XLSX file")
	}

	fmt.Printf("Reading sheet: %s\n", sheetName)

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read rows: %w", err)
	}

	if len(rows) == 0 {
		return nil, 0, fmt.Errorf("no data found in XLSX file")
	}

	var bindings []model.TagBinding
	seen := make(map[string]bool) // last occurrence of a uid wins
	skipped := 0

	for i, row := range rows {
		if i == 0 {
			// Header row
			fmt.Printf("Headers: %v\n", row)
			continue
		}

		if len(row) < 2 {
			skipped++
			continue
		}

		uid := strings.ToUpper(strings.TrimSpace(row[0]))
		playlistURI := strings.TrimSpace(row[1])

		if uid == "" || playlistURI == "" {
			skipped++
			continue
		}

		lastTrackURI := ""
		if len(row) > 2 {
			lastTrackURI = strings.TrimSpace(row[2])
		}

		var lastPosMS int64
		if len(row) > 3 && strings.TrimSpace(row[3]) != "" {
			lastPosMS, err = strconv.ParseInt(strings.TrimSpace(row[3]), 10, 64)
			if err != nil || lastPosMS < 0 {
				skipped++
				continue
			}
		}

		binding := model.TagBinding{
			UID:          uid,
			PlaylistURI:  playlistURI,
			LastTrackURI: lastTrackURI,
			LastPosMS:    lastPosMS,
		}

		if seen[uid] {
			// Replace the earlier occurrence so one file cannot upsert
			// the same uid twice in one transaction.
			for j := range bindings {
				if bindings[j].UID == uid {
					bindings[j] = binding
					break
				}
			}
			skipped++
			continue
		}
		seen[uid] = true

		bindings = append(bindings, binding)
	}

	return bindings, skipped, nil
}
