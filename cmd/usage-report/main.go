package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"audio-insights-go/internal/logger"
	"audio-insights-go/internal/types"
	"audio-insights-go/internal/usage"
)

func main() {
	_ = godotenv.Load()

	in := flag.String("in", envOr("USAGE_LOG_PATH", "registro_uso.csv"), "usage log to read (.csv or .xlsx)")
	out := flag.String("out", "uso.xlsx", "workbook to write")
	flag.Parse()

	log := logger.New().Component("usage-report")
	sum, err := run(*in, *out)
	if err != nil {
		log.WithError(err).Fatal("usage report failed")
	}
	log.WithField("in", *in).WithField("out", *out).WithField("total", sum.Total).WithField("submitters", len(sum.BySubmitter)).Info("usage report written")
}

func run(in, out string) (usage.Summary, error) {
	var (
		records []types.UsageRecord
		err     error
	)
	switch strings.ToLower(filepath.Ext(in)) {
	case ".xlsx":
		records, err = usage.ReadXLSX(in)
	case ".csv":
		records, err = usage.ReadCSV(in)
	default:
		return usage.Summary{}, fmt.Errorf("unsupported input %q: want .csv or .xlsx", in)
	}
	if err != nil {
		return usage.Summary{}, err
	}
	return usage.ExportXLSX(out, records)
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
