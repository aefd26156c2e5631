package decode

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aclements/corecounter/internal/sample"
)

func writeProfileFile(t *testing.T, dir string, coreID int, records []sample.Record) string {
	t.Helper()
	path := filepath.Join(dir, fmt.Sprintf("profile_data_%d.bin", coreID))
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	buf := make([]byte, sample.Size)
	for _, r := range records {
		r.Encode(buf)
		if _, err := f.Write(buf); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	return path
}

func TestDecodeProducesHeaderAndRows(t *testing.T) {
	dir := t.TempDir()
	records := []sample.Record{
		{MonotonicTimeNs: 1, RealTimeNs: 5000, LLCLoads: 1, LLCMisses: 2, InstrRetired: 3},
		{MonotonicTimeNs: 2, RealTimeNs: 9000, LLCLoads: 4, LLCMisses: 5, InstrRetired: 6},
	}
	writeProfileFile(t, dir, 2, records)

	report, err := Decode(dir, DefaultChunkSize)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(report.Files) != 1 || report.Files[0].Err != nil {
		t.Fatalf("report = %+v", report)
	}
	if report.Files[0].RecordCount != 2 {
		t.Fatalf("RecordCount = %d, want 2", report.Files[0].RecordCount)
	}

	data, err := os.ReadFile(filepath.Join(dir, "profiling_results_2.csv"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if lines[0] != "Time,LLC-loads,LLC-misses,Instructions" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "5,1,2,3" {
		t.Errorf("row 1 = %q, want \"5,1,2,3\"", lines[1])
	}
	if lines[2] != "9,4,5,6" {
		t.Errorf("row 2 = %q, want \"9,4,5,6\"", lines[2])
	}
}

func TestDecodeIgnoresNonMatchingFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "not_a_profile.bin"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	report, err := Decode(dir, DefaultChunkSize)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(report.Files) != 0 {
		t.Errorf("expected no matched files, got %+v", report.Files)
	}
}

func TestDecodeRejectsInvalidChunkSize(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []int{0, -1, MaxChunkSize + 1} {
		if _, err := Decode(dir, n); err == nil {
			t.Errorf("Decode with chunkSize=%d: expected error", n)
		}
	}
}

func TestDecodeIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeProfileFile(t, dir, 3, []sample.Record{
		{MonotonicTimeNs: 1, RealTimeNs: 1000, LLCLoads: 1, LLCMisses: 1, InstrRetired: 1},
	})
	if _, err := Decode(dir, DefaultChunkSize); err != nil {
		t.Fatalf("first Decode: %v", err)
	}
	first, err := os.ReadFile(filepath.Join(dir, "profiling_results_3.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Decode(dir, DefaultChunkSize); err != nil {
		t.Fatalf("second Decode: %v", err)
	}
	second, err := os.ReadFile(filepath.Join(dir, "profiling_results_3.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Error("decode is not idempotent: outputs differ across runs")
	}
}

func TestDecodeMissingDirectory(t *testing.T) {
	if _, err := Decode(filepath.Join(t.TempDir(), "does-not-exist"), DefaultChunkSize); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestDecodeChunkingAcrossBoundary(t *testing.T) {
	dir := t.TempDir()
	var records []sample.Record
	for i := uint64(0); i < 5; i++ {
		records = append(records, sample.Record{RealTimeNs: i * 1000, LLCLoads: i})
	}
	writeProfileFile(t, dir, 7, records)

	// chunkSize smaller than the record count forces multiple chunk reads.
	report, err := Decode(dir, 2)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if report.Files[0].RecordCount != 5 {
		t.Fatalf("RecordCount = %d, want 5", report.Files[0].RecordCount)
	}
	f, err := os.Open(filepath.Join(dir, "profiling_results_7.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	n := 0
	for sc.Scan() {
		n++
	}
	if n != 6 { // header + 5 rows
		t.Errorf("line count = %d, want 6", n)
	}
}
