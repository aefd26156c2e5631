// Package decode converts the sampler's per-core binary record files into
// per-core CSV files for downstream analysis.
package decode

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/aclements/corecounter/internal/sample"
)

// DefaultChunkSize is the number of records read from a binary file per
// chunk when the caller does not specify one.
const DefaultChunkSize = 1000

// MaxChunkSize is the largest chunk size accepted.
const MaxChunkSize = 1_000_000

var profileFileRe = regexp.MustCompile(`^profile_data_(\d+)\.bin$`)

const csvHeader = "Time,LLC-loads,LLC-misses,Instructions\n"

// FileResult reports the outcome of decoding one binary file.
type FileResult struct {
	Path        string
	CoreID      int
	RecordCount int
	Err         error
}

// Report summarizes a decode run over a directory.
type Report struct {
	Files []FileResult
}

// Failed reports whether any file in the report failed to decode.
func (r Report) Failed() bool {
	for _, f := range r.Files {
		if f.Err != nil {
			return true
		}
	}
	return false
}

// Decode enumerates profile_data_<id>.bin files directly inside dir,
// decodes each in chunks of chunkSize records, and writes a sibling
// profiling_results_<id>.csv for each. chunkSize must satisfy
// 1 <= chunkSize <= MaxChunkSize; callers wanting the documented default of
// 1000 samples must pass DefaultChunkSize explicitly, since 0 is rejected
// rather than silently substituted (the CLI distinguishes "flag omitted"
// from "--chunk-size 0").
//
// A failure decoding one file is recorded in the returned Report and does
// not stop the remaining files from being processed.
func Decode(dir string, chunkSize int) (Report, error) {
	if chunkSize < 1 || chunkSize > MaxChunkSize {
		return Report{}, fmt.Errorf("decode: chunk size %d out of range [1, %d]", chunkSize, MaxChunkSize)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return Report{}, fmt.Errorf("decode: read dir %s: %w", dir, err)
	}

	var report Report
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := profileFileRe.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		coreID, err := strconv.Atoi(m[1])
		if err != nil {
			continue // regex guarantees digits; unreachable in practice
		}

		path := filepath.Join(dir, entry.Name())
		n, err := decodeFile(path, dir, coreID, chunkSize)
		report.Files = append(report.Files, FileResult{
			Path:        path,
			CoreID:      coreID,
			RecordCount: n,
			Err:         err,
		})
	}
	return report, nil
}

func decodeFile(path, dir string, coreID, chunkSize int) (int, error) {
	in, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer in.Close()

	outPath := filepath.Join(dir, fmt.Sprintf("profiling_results_%d.csv", coreID))
	out, err := os.Create(outPath)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", outPath, err)
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	if _, err := io.WriteString(w, csvHeader); err != nil {
		return 0, fmt.Errorf("write header to %s: %w", outPath, err)
	}

	buf := make([]byte, chunkSize*sample.Size)
	count := 0
	for {
		n, err := io.ReadFull(in, buf)
		if n > 0 {
			full := n / sample.Size
			for i := 0; i < full; i++ {
				r := sample.Decode(buf[i*sample.Size : (i+1)*sample.Size])
				fmt.Fprintf(w, "%d,%d,%d,%d\n", r.RealTimeNs/1000, r.LLCLoads, r.LLCMisses, r.InstrRetired)
			}
			count += full
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return count, fmt.Errorf("read %s: %w", path, err)
		}
	}

	if err := w.Flush(); err != nil {
		return count, fmt.Errorf("flush %s: %w", outPath, err)
	}
	return count, nil
}
