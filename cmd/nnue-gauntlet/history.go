package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/jordiqui/nnue-gauntlet/pkg/config"
	"github.com/jordiqui/nnue-gauntlet/pkg/history"
)

func runHistoryCommand(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: nnue-gauntlet history <list|show> [flags]")
	}
	switch args[0] {
	case "list":
		return runHistoryList(args[1:])
	case "show":
		return runHistoryShow(args[1:])
	default:
		return fmt.Errorf("unknown history command: %s (use list or show)", args[0])
	}
}

func runHistoryList(args []string) error {
	fs := flag.NewFlagSet("history list", flag.ContinueOnError)
	historyPath := fs.String("history", config.DefaultHistoryPath, "history document path")
	limit := fs.Int("limit", 20, "maximum records to show (0 shows all)")
	promotedOnly := fs.Bool("promoted", false, "show only promoted candidates")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store := history.NewStore(*historyPath)
	if err := store.Load(); err != nil {
		return err
	}

	records := selectRecords(store.Records(), *promotedOnly, *limit)
	if len(records) == 0 {
		fmt.Println("No evaluations recorded.")
		return nil
	}
	return writeHistoryTable(os.Stdout, records)
}

// selectRecords filters and orders records for display: newest first,
// optionally promoted only, capped at limit when limit is positive.
func selectRecords(records []history.Record, promotedOnly bool, limit int) []history.Record {
	if promotedOnly {
		var filtered []history.Record
		for _, rec := range records {
			if rec.Promoted {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records
}

// writeHistoryTable renders records with W-L-D from the candidate's
// perspective, matching the margin column.
func writeHistoryTable(w io.Writer, records []history.Record) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tID\tCANDIDATE\tW-L-D\tMARGIN\tPROMOTED")
	for _, rec := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.0f-%.0f-%.0f\t%+.1f\t%t\n",
			rec.Timestamp.UTC().Format("2006-01-02 15:04"),
			rec.ID,
			filepath.Base(rec.Candidate),
			rec.WinsCandidate, rec.WinsBaseline, rec.Draws,
			rec.Margin(),
			rec.Promoted)
	}
	return tw.Flush()
}

func runHistoryShow(args []string) error {
	fs := flag.NewFlagSet("history show", flag.ContinueOnError)
	historyPath := fs.String("history", config.DefaultHistoryPath, "history document path")
	id := fs.String("id", "", "record ID to show")
	if err := fs.Parse(args); err != nil {
		return err
	}
	recordID := *id
	if recordID == "" && fs.NArg() > 0 {
		recordID = fs.Arg(0)
	}
	if recordID == "" {
		return errors.New("usage: nnue-gauntlet history show <id>")
	}

	store := history.NewStore(*historyPath)
	if err := store.Load(); err != nil {
		return err
	}
	rec, ok := store.Find(recordID)
	if !ok {
		return fmt.Errorf("record not found: %s", recordID)
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
