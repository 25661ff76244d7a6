package fetcher

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// CSVOptions configures the streaming CSV parser.
type CSVOptions struct {
	Delimiter  rune // default ';' (national address exports are semicolon-delimited)
	LazyQuotes bool
	TrimSpace  bool
}

// StreamRecords reads a delimited file whose first row is a header and sends
// one header-keyed record per data row to a channel. Caller must consume the
// returned record channel; errors are sent on the error channel. Both channels
// are closed when processing completes.
func StreamRecords(ctx context.Context, r io.Reader, opts CSVOptions) (<-chan map[string]string, <-chan error) {
	recordCh := make(chan map[string]string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(recordCh)
		defer close(errCh)

		reader := csv.NewReader(r)
		if opts.Delimiter != 0 {
			reader.Comma = opts.Delimiter
		} else {
			reader.Comma = ';'
		}
		reader.LazyQuotes = opts.LazyQuotes
		reader.FieldsPerRecord = -1 // allow variable fields

		var header []string
		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}

			row, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "csv: read row")
				return
			}

			if opts.TrimSpace {
				for i, field := range row {
					row[i] = strings.TrimSpace(field)
				}
			}

			if header == nil {
				header = row
				continue
			}

			record := make(map[string]string, len(header))
			for i, name := range header {
				if i < len(row) {
					record[name] = row[i]
				}
			}

			select {
			case recordCh <- record:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
	}()

	return recordCh, errCh
}
