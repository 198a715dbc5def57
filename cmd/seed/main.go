package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

type ctxKey string

const dbKey ctxKey = "db"

const insertBatchSize = 500

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func initDB(c *cli.Context) error {
	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	c.Context = context.WithValue(c.Context, dbKey, db)
	return nil
}

func closeDB(c *cli.Context) error {
	if db, ok := c.Context.Value(dbKey).(*sql.DB); ok && db != nil {
		return db.Close()
	}
	return nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "seed",
		Usage: "Load dealer purchase history into the database",
		Commands: []*cli.Command{
			{
				Name:  "purchases",
				Usage: "Load purchase history CSV files (dealer_code, part_no, ordr_entry_date, purchase_qty)",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:    "data-dir",
						Usage:   "Directory containing purchase history CSV files",
						Value:   "./data/purchases",
						EnvVars: []string{"PURCHASE_DATA_DIR"},
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of files to load concurrently",
						Value: 4,
					},
				},
				Before: initDB,
				After:  closeDB,
				Action: seedPurchases,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func seedPurchases(c *cli.Context) error {
	db := c.Context.Value(dbKey).(*sql.DB)
	dataDir := c.String("data-dir")

	files, err := filepath.Glob(filepath.Join(dataDir, "*.csv"))
	if err != nil {
		return fmt.Errorf("failed to list CSV files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no CSV files found in %s", dataDir)
	}

	log.Printf("Loading %d purchase history files from %s", len(files), dataDir)

	workerCount := c.Int("workers")
	if workerCount < 1 {
		workerCount = 1
	}

	fileChan := make(chan string, len(files))
	errChan := make(chan error, workerCount)
	var wg sync.WaitGroup

	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for file := range fileChan {
				start := time.Now()
				rows, err := loadPurchaseFile(c.Context, db, file)
				if err != nil {
					log.Printf("Worker %d failed to load %s: %v", workerID, file, err)
					select {
					case errChan <- err:
					default:
					}
					continue
				}
				log.Printf("Loaded %s in %v (%d rows)", file, time.Since(start), rows)
			}
		}(i)
	}

	for _, file := range files {
		select {
		case <-c.Context.Done():
			close(fileChan)
			return c.Context.Err()
		case fileChan <- file:
		}
	}
	close(fileChan)

	wg.Wait()
	close(errChan)

	if err := <-errChan; err != nil {
		return err
	}

	log.Println("Purchase history loading completed")
	return nil
}

type purchaseRow struct {
	dealer string
	part   string
	date   time.Time
	qty    float64
}

// loadPurchaseFile streams one CSV file into parts_purchase_data in
// batches of insertBatchSize rows, all within a single transaction.
func loadPurchaseFile(ctx context.Context, db *sql.DB, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read header: %w", err)
	}
	cols, err := mapColumns(header)
	if err != nil {
		return 0, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		batch   []purchaseRow
		total   int
		skipped int
		line    = 1
	)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read line %d: %w", line+1, err)
		}
		line++

		row, err := parsePurchaseRow(record, cols)
		if err != nil {
			skipped++
			continue
		}
		batch = append(batch, row)

		if len(batch) >= insertBatchSize {
			if err := insertBatch(ctx, tx, batch); err != nil {
				return 0, err
			}
			total += len(batch)
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		if err := insertBatch(ctx, tx, batch); err != nil {
			return 0, err
		}
		total += len(batch)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if skipped > 0 {
		log.Printf("Skipped %d malformed rows in %s", skipped, filepath.Base(path))
	}
	return total, nil
}

type columnIndex struct {
	dealer int
	part   int
	date   int
	qty    int
}

func mapColumns(header []string) (columnIndex, error) {
	cols := columnIndex{dealer: -1, part: -1, date: -1, qty: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "dealer_code", "dlr_cd":
			cols.dealer = i
		case "part_no", "part_number":
			cols.part = i
		case "ordr_entry_date", "order_date":
			cols.date = i
		case "purchase_qty", "qty":
			cols.qty = i
		}
	}
	if cols.dealer < 0 || cols.part < 0 || cols.date < 0 || cols.qty < 0 {
		return cols, fmt.Errorf("missing required columns, got header: %v", header)
	}
	return cols, nil
}

func parsePurchaseRow(record []string, cols columnIndex) (purchaseRow, error) {
	var row purchaseRow

	row.dealer = strings.TrimSpace(record[cols.dealer])
	row.part = strings.TrimSpace(record[cols.part])
	if row.dealer == "" || row.part == "" {
		return row, fmt.Errorf("empty dealer or part")
	}

	date, err := parseDate(record[cols.date])
	if err != nil {
		return row, err
	}
	row.date = date

	qty, err := strconv.ParseFloat(strings.TrimSpace(record[cols.qty]), 64)
	if err != nil {
		return row, fmt.Errorf("invalid quantity %q: %w", record[cols.qty], err)
	}
	row.qty = qty

	return row, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", "01/02/2006", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

func insertBatch(ctx context.Context, tx *sql.Tx, batch []purchaseRow) error {
	var sb strings.Builder
	sb.WriteString("INSERT INTO parts_purchase_data (dealer_code, part_no, ordr_entry_date, purchase_qty) VALUES ")

	args := make([]interface{}, 0, len(batch)*4)
	for i, row := range batch {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 4
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4)
		args = append(args, row.dealer, row.part, row.date, row.qty)
	}

	if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("failed to insert batch: %w", err)
	}
	return nil
}
