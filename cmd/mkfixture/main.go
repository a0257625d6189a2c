// mkfixture creates a small representative fee-schedule Parquet fixture from
// a full table. One pass buckets rows by trait, then the buckets are merged
// in priority order up to --rows.
// Usage: go run ./cmd/mkfixture --in testdata/fee-schedule.parquet --out testdata/fee-schedule-small.parquet --rows 200
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	goparquet "github.com/parquet-go/parquet-go"

	"github.com/gyeh/billcheck/internal/feeschedule"
	"github.com/gyeh/billcheck/internal/model"
)

type bucket struct {
	name string
	rows []model.FeeScheduleRow
	want int
}

func main() {
	in := flag.String("in", "testdata/fee-schedule.parquet", "input parquet")
	out := flag.String("out", "testdata/fee-schedule-small.parquet", "output parquet")
	maxRows := flag.Int("rows", 200, "max rows to output")
	state := flag.String("state", "", "also keep rows for this state")
	checkOnly := flag.Bool("check", false, "only print stats, don't write")
	flag.Parse()

	reader, err := feeschedule.Open(*in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer reader.Close()

	if err := feeschedule.ValidateSchema(reader.Schema()); err != nil {
		fmt.Fprintf(os.Stderr, "schema: %v\n", err)
		os.Exit(1)
	}

	var buckets []*bucket
	byType := make(map[string]*bucket)
	for _, ct := range model.AllCodeTypes {
		b := &bucket{name: ct.Name, want: 25}
		buckets = append(buckets, b)
		byType[ct.Column] = b
	}
	modifier := &bucket{name: "modifier", want: 20}
	inState := &bucket{name: "state", want: 20}
	medicareOnly := &bucket{name: "medicare_only", want: 10}
	general := &bucket{name: "general", want: *maxRows}
	buckets = append(buckets, modifier, inState, medicareOnly)

	take := func(b *bucket, row model.FeeScheduleRow) bool {
		if len(b.rows) >= b.want {
			return false
		}
		b.rows = append(b.rows, row)
		return true
	}

	buf := make([]model.FeeScheduleRow, 1024)
	var totalRead int
	for {
		n, readErr := reader.Read(buf)
		for i := 0; i < n; i++ {
			totalRead++
			row := buf[i]
			if *checkOnly {
				continue
			}

			placed := false
			if b := byType[strings.ToLower(row.CodeType)]; b != nil && take(b, row) {
				placed = true
			}
			if row.Modifier != nil && *row.Modifier != "" && take(modifier, row) {
				placed = true
			}
			if *state != "" && row.State != nil && strings.EqualFold(*row.State, *state) && take(inState, row) {
				placed = true
			}
			if row.MedicareAllowed != nil && row.RateCount() == 1 && take(medicareOnly, row) {
				placed = true
			}
			if !placed {
				take(general, row)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			fmt.Fprintf(os.Stderr, "read: %v\n", readErr)
			os.Exit(1)
		}
	}
	fmt.Printf("Scanned %d rows\n", totalRead)
	if *checkOnly {
		return
	}

	var selected []model.FeeScheduleRow
	for _, b := range append(buckets, general) {
		for _, row := range b.rows {
			if len(selected) >= *maxRows {
				break
			}
			selected = append(selected, row)
		}
	}

	outFile, err := os.Create(*out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create output: %v\n", err)
		os.Exit(1)
	}
	defer outFile.Close()

	writer := goparquet.NewGenericWriter[model.FeeScheduleRow](outFile)
	if _, err := writer.Write(selected); err != nil {
		fmt.Fprintf(os.Stderr, "write: %v\n", err)
		os.Exit(1)
	}
	if err := writer.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close writer: %v\n", err)
		os.Exit(1)
	}

	typeCounts := make(map[string]int)
	withModifier := 0
	for _, row := range selected {
		typeCounts[strings.ToLower(row.CodeType)]++
		if row.Modifier != nil && *row.Modifier != "" {
			withModifier++
		}
	}
	fmt.Printf("Wrote %d rows to %s\n", len(selected), *out)
	fmt.Println("Code distribution:")
	for _, ct := range model.AllCodeTypes {
		if c := typeCounts[ct.Column]; c > 0 {
			fmt.Printf("  %-10s %d\n", ct.Name, c)
		}
	}
	fmt.Printf("  %-10s %d\n", "modifier", withModifier)
}
