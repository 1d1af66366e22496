package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/jordiqui/nnue-gauntlet/pkg/history"
)

func sampleRecords() []history.Record {
	return []history.Record{
		{
			ID:              "01A",
			Timestamp:       time.Date(2025, 11, 2, 9, 30, 0, 0, time.UTC),
			Tool:            "cutechess",
			Candidate:       "/nets/cand-old.nnue",
			Rounds:          20,
			WinsBaseline:    10,
			WinsCandidate:   4,
			Draws:           6,
			PointsBaseline:  13,
			PointsCandidate: 7,
		},
		{
			ID:              "01B",
			Timestamp:       time.Date(2025, 11, 3, 14, 0, 0, 0, time.UTC),
			Tool:            "cutechess",
			Candidate:       "/nets/cand-new.nnue",
			Rounds:          20,
			WinsBaseline:    4,
			WinsCandidate:   10,
			Draws:           6,
			PointsBaseline:  7,
			PointsCandidate: 13,
			Promoted:        true,
		},
	}
}

func TestSelectRecordsNewestFirst(t *testing.T) {
	t.Parallel()

	got := selectRecords(sampleRecords(), false, 0)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "01B" || got[1].ID != "01A" {
		t.Fatalf("order = %s, %s; want 01B then 01A", got[0].ID, got[1].ID)
	}
}

func TestSelectRecordsPromotedOnly(t *testing.T) {
	t.Parallel()

	got := selectRecords(sampleRecords(), true, 0)
	if len(got) != 1 || got[0].ID != "01B" {
		t.Fatalf("records = %+v, want only the promoted record", got)
	}
}

func TestSelectRecordsLimit(t *testing.T) {
	t.Parallel()

	got := selectRecords(sampleRecords(), false, 1)
	if len(got) != 1 || got[0].ID != "01B" {
		t.Fatalf("records = %+v, want the newest record only", got)
	}
}

func TestWriteHistoryTable(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := writeHistoryTable(&buf, selectRecords(sampleRecords(), false, 0)); err != nil {
		t.Fatalf("writeHistoryTable returned error: %v", err)
	}

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("line count = %d, want header plus two rows:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "TIME") || !strings.Contains(lines[0], "PROMOTED") {
		t.Errorf("unexpected header: %q", lines[0])
	}
	for _, want := range []string{"cand-new.nnue", "10-4-6", "+6.0", "true"} {
		if !strings.Contains(lines[1], want) {
			t.Errorf("first row missing %q: %q", want, lines[1])
		}
	}
	for _, want := range []string{"cand-old.nnue", "4-10-6", "-6.0", "false"} {
		if !strings.Contains(lines[2], want) {
			t.Errorf("second row missing %q: %q", want, lines[2])
		}
	}
}
