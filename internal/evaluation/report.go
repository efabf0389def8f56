package evaluation

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// WriteCSV writes the aggregate rows as a CSV table with a header
// line, one row per cutoff.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"K", "P@K", "R@K", "MAP@K"}); err != nil {
		return fmt.Errorf("writing report header: %w", err)
	}
	for _, r := range rows {
		rec := []string{
			strconv.Itoa(r.K),
			strconv.FormatFloat(r.Precision, 'f', 4, 64),
			strconv.FormatFloat(r.Recall, 'f', 4, 64),
			strconv.FormatFloat(r.MeanAveragePrec, 'f', 4, 64),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing report row K=%d: %w", r.K, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing report: %w", err)
	}
	return nil
}
