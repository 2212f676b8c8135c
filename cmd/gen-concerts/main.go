package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/encore/internal/testdata"
	"github.com/okian/encore/pkg/logger"
)

// Default configuration constants.
const (
	defaultRows     = 100
	defaultBadShare = 0.05
	outputFileMode  = 0o644
)

func main() {
	var (
		rows     = flag.Int("rows", defaultRows, "Number of concert rows to generate")
		badShare = flag.Float64("bad", defaultBadShare, "Fraction of rows made deliberately invalid (0..1)")
		output   = flag.String("output", "", "Output file (default: concerts_TIMESTAMP.csv)")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}

	ctx := context.Background()

	data, err := testdata.Generate(ctx, &testdata.Config{
		Rows:     *rows,
		BadShare: *badShare,
	})
	if err != nil {
		os.Stderr.WriteString("generation failed: " + err.Error() + "\n")
		os.Exit(1)
	}

	name := *output
	if name == "" {
		name = "concerts_" + time.Now().Format("20060102_150405") + ".csv"
	}

	if err := os.WriteFile(name, data, outputFileMode); err != nil {
		os.Stderr.WriteString("writing output: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Get().Info(ctx, "concert data written",
		logger.String("file", name),
		logger.Int("rows", *rows),
	)
}
