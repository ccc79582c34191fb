package paper

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/phkoenig/AlgoKuCoin/internal/execution"
)

func TestJSONLRecorderWritesFills(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fills", "fills.jsonl")
	recorder, err := NewJSONLRecorder(path)
	if err != nil {
		t.Fatalf("NewJSONLRecorder returned error: %v", err)
	}

	recorder.Record(execution.Fill{Symbol: "SOLUSDTM", Side: execution.Buy, Qty: 1, Price: 21.5, Ts: time.Unix(50, 0).UTC()})
	recorder.Record(execution.Fill{Symbol: "SOLUSDTM", Side: execution.Sell, Qty: 1, Price: 22, Ts: time.Unix(60, 0).UTC()})
	if err := recorder.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open fills: %v", err)
	}
	defer file.Close()

	var fills []execution.Fill
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var f execution.Fill
		if err := json.Unmarshal(scanner.Bytes(), &f); err != nil {
			t.Fatalf("decode line: %v", err)
		}
		fills = append(fills, f)
	}
	if len(fills) != 2 {
		t.Fatalf("expected 2 fills, got %d", len(fills))
	}
	if fills[0].Side != execution.Buy || fills[1].Price != 22 {
		t.Fatalf("unexpected fills: %+v", fills)
	}
}

func TestRecorderCloseIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fills.jsonl")
	recorder, err := NewJSONLRecorder(path)
	if err != nil {
		t.Fatalf("NewJSONLRecorder returned error: %v", err)
	}
	if err := recorder.Close(); err != nil {
		t.Fatalf("first close returned error: %v", err)
	}
	if err := recorder.Close(); err != nil {
		t.Fatalf("second close returned error: %v", err)
	}
}
