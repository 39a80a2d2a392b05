package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"swapScope/internal/model"
)

func TestJsonlStorageAppendsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "journal.jsonl")
	store := NewJsonlStorage(path)
	ctx := context.Background()

	quote := model.QuoteRecord{
		ChainID:   42161,
		TokenIn:   "0x82aF49447D8a07e3bd95BD0d56f35241523fBab1",
		TokenOut:  "0xFF970A61A04b1cA14834A43f5dE4533eBDDB5CC8",
		AmountIn:  "1000000000000000000",
		AmountOut: "1812345678",
		Route:     []string{model.DirectRoute},
		Source:    model.SourceFallbackPool,
	}
	if err := store.PutQuote(ctx, quote); err != nil {
		t.Fatalf("put quote: %v", err)
	}
	snapshot := model.PoolSnapshotRecord{ChainID: 42161, PoolState: model.PoolState{Address: "0xC6962004f452bE9203591991D15f6b388e09E8D0", Fee: 500, Tick: -200000}}
	if err := store.PutPoolSnapshot(ctx, snapshot); err != nil {
		t.Fatalf("put snapshot: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer file.Close()

	var kinds []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var entry struct {
			Kind   string          `json:"kind"`
			Record json.RawMessage `json:"record"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("decode line: %v", err)
		}
		kinds = append(kinds, entry.Kind)
		if entry.Kind == KindQuote {
			var got model.QuoteRecord
			if err := json.Unmarshal(entry.Record, &got); err != nil {
				t.Fatalf("decode quote: %v", err)
			}
			if got.AmountOut != quote.AmountOut || got.Source != quote.Source {
				t.Fatalf("quote mismatch: %+v", got)
			}
		}
	}
	if len(kinds) != 2 || kinds[0] != KindQuote || kinds[1] != KindPoolSnapshot {
		t.Fatalf("unexpected entries: %v", kinds)
	}
}

type failingJournal struct{ err error }

func (f failingJournal) PutQuote(context.Context, model.QuoteRecord) error { return f.err }
func (f failingJournal) PutPoolSnapshot(context.Context, model.PoolSnapshotRecord) error {
	return f.err
}

func TestTeeWritesAllAndJoinsErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	boom := errors.New("db down")
	tee := Tee{failingJournal{err: boom}, NewJsonlStorage(path), Discard{}}

	err := tee.PutQuote(context.Background(), model.QuoteRecord{ChainID: 42161})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if _, statErr := os.Stat(path); statErr != nil {
		t.Fatalf("later journal skipped: %v", statErr)
	}
}
