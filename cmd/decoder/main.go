// Command decoder converts the binary per-core sample files produced by
// the sampler into per-core CSV files.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/aclements/corecounter/internal/decode"
)

func main() {
	var (
		flagDataDir   = flag.String("data-dir", "", "`directory` containing profile_data_<core>.bin files")
		flagChunkSize = flag.Int("chunk-size", decode.DefaultChunkSize, "number of records to decode per `chunk`")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "", log.LstdFlags)

	if *flagDataDir == "" {
		logger.Fatal("--data-dir is required")
	}

	report, err := decode.Decode(*flagDataDir, *flagChunkSize)
	if err != nil {
		logger.Fatal(err)
	}

	for _, f := range report.Files {
		if f.Err != nil {
			logger.Printf("error processing %s: %v", f.Path, f.Err)
			continue
		}
		logger.Printf("successfully wrote %d samples from %s", f.RecordCount, f.Path)
	}

	if report.Failed() {
		os.Exit(1)
	}
}
