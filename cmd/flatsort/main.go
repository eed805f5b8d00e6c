package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/flatsort/flatsort/internal/errs"
	"github.com/flatsort/flatsort/internal/sorter"
	"github.com/flatsort/flatsort/internal/validate"
)

const usage = `Usage: flatsort -input FILE -key COLS [options]

  -input FILE       source CSV path (required)
  -key COLS         comma-separated 0-based key column indices (required)
  -geo COLS         comma-separated [lon,lat] column indices
  -buffer-mb N      in-memory spill threshold in MB (default 100)
  -max-per-key N    retained records per digest, 0 disables dedup (default 200)
  -codec NAME       spill codec: lz4, zstd, none (default lz4)
  -out FILE         write sorted rows as PostgreSQL COPY BINARY to FILE
  -error-log FILE   append rejected-row diagnostics to FILE
  -url-column N     apply the URL validator to column N
  -protocol-column N  apply the protocol validator to column N
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("flatsort", flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage) }

	input := fs.String("input", "", "source CSV path")
	keyCols := fs.String("key", "", "comma-separated key column indices")
	geoCols := fs.String("geo", "", "comma-separated [lon,lat] column indices")
	bufferMB := fs.Int("buffer-mb", 100, "in-memory spill threshold in MB")
	maxPerKey := fs.Int("max-per-key", 200, "records retained per digest")
	codec := fs.String("codec", "lz4", "spill codec: lz4, zstd, none")
	out := fs.String("out", "", "write COPY BINARY output to this path")
	errorLog := fs.String("error-log", "", "append rejected-row diagnostics here")
	urlColumn := fs.Int("url-column", -1, "apply URL validator to this column")
	protocolColumn := fs.Int("protocol-column", -1, "apply protocol validator to this column")

	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *input == "" || *keyCols == "" {
		fs.Usage()
		return 1
	}
	key, err := parseIndices(*keyCols)
	if err != nil {
		fmt.Fprintf(os.Stderr, "flatsort: -key: %v\n", err)
		return 1
	}
	var geo []int
	if *geoCols != "" {
		geo, err = parseIndices(*geoCols)
		if err != nil {
			fmt.Fprintf(os.Stderr, "flatsort: -geo: %v\n", err)
			return 1
		}
		if len(geo) != 2 {
			fmt.Fprintln(os.Stderr, "flatsort: -geo requires exactly two indices")
			return 1
		}
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	s, err := sorter.New(sorter.Config{
		KeyColumns:       key,
		GeoColumns:       geo,
		BufferMB:         *bufferMB,
		NoDedupe:         *maxPerKey == 0,
		MaxRecordsPerKey: *maxPerKey,
		SpillCodec:       codec2name(*codec),
		ErrorLogPath:     *errorLog,
		Logger:           logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "flatsort: %v\n", err)
		return 2
	}
	defer s.Close()

	if *urlColumn >= 0 || *protocolColumn >= 0 {
		width := *urlColumn
		if *protocolColumn > width {
			width = *protocolColumn
		}
		rules := make([]validate.Rule, width+1)
		if *urlColumn >= 0 {
			rules[*urlColumn] = validate.URL
		}
		if *protocolColumn >= 0 {
			rules[*protocolColumn] = validate.Protocol
		}
		if err := s.SetValidationSchema(validate.New(rules, nil)); err != nil {
			fmt.Fprintf(os.Stderr, "flatsort: %v\n", err)
			return 2
		}
	}

	fmt.Printf("Reading %s...\n", *input)
	start := time.Now()
	if err := s.AddFile(*input); err != nil {
		fmt.Fprintf(os.Stderr, "flatsort: %v\n", err)
		if isInputError(err) {
			return 1
		}
		return 2
	}

	stats, err := s.Sort()
	if err != nil {
		fmt.Fprintf(os.Stderr, "flatsort: %v\n", err)
		return 2
	}
	elapsed := time.Since(start)

	fmt.Println(strings.Repeat("-", 52))
	fmt.Printf("Rows processed:   %d\n", stats.TotalRowsProcessed)
	fmt.Printf("Rows in output:   %d\n", stats.TotalRows)
	fmt.Printf("URL rejects:      %d\n", stats.FailedURLErrorCount)
	fmt.Printf("Protocol rejects: %d\n", stats.FailedProtocolErrorCount)
	fmt.Printf("Elapsed:          %v\n", elapsed)
	fmt.Println(strings.Repeat("-", 52))

	if *out != "" {
		if err := s.WriteBinaryPostgresFile(*out); err != nil {
			fmt.Fprintf(os.Stderr, "flatsort: writing %s: %v\n", *out, err)
			return 2
		}
		fmt.Printf("Wrote %s\n", *out)
	}

	return 0
}

func parseIndices(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid index %q", p)
		}
		out = append(out, n)
	}
	return out, nil
}

func codec2name(s string) string {
	switch strings.ToLower(s) {
	case "zstd":
		return "zstd"
	case "none":
		return "none"
	default:
		return "lz4"
	}
}

func isInputError(err error) bool {
	return errors.Is(err, errs.ErrInvalidInput)
}
