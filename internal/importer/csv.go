// Package importer decodes provider CSV exports into raw records.
package importer

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"hazards_directory/internal/domain"
)

// Row is one CSV line, matched to columns by header name. Unknown columns are ignored.
type Row struct {
	State           string `csv:"State"`
	County          string `csv:"County"`
	ServiceCategory string `csv:"Service Category"`
	ProviderName    string `csv:"Provider Name"`
	PrimaryCategory string `csv:"Primary Category"`
	Address         string `csv:"Address"`
	Phone           string `csv:"Phone"`
	Website         string `csv:"Website"`
	Rating          string `csv:"Rating"`
	ReviewCount     string `csv:"ReviewCount"`
	PlaceID         string `csv:"PlaceId"`
	Description     string `csv:"Description"`
}

func (r Row) Raw() domain.RawProvider {
	return domain.RawProvider(r)
}

// ReadFile decodes the CSV at path.
func ReadFile(ctx context.Context, path string) ([]domain.RawProvider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "importer: open %s", path)
	}
	defer f.Close()
	return Decode(ctx, f)
}

// Decode reads every row from r. Blank lines are skipped; a leading UTF-8
// byte order mark is dropped.
func Decode(ctx context.Context, r io.Reader) ([]domain.RawProvider, error) {
	br := bufio.NewReader(r)
	if b, err := br.Peek(3); err == nil && string(b) == "\xef\xbb\xbf" {
		_, _ = br.Discard(3)
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	dec, err := csvutil.NewDecoder(cr)
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "importer: read header")
	}

	var out []domain.RawProvider
	for {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "importer: decode")
		}
		var row Row
		err := dec.Decode(&row)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, eris.Wrapf(err, "importer: line %d", len(out)+2)
		}
		out = append(out, row.Raw())
	}
}
