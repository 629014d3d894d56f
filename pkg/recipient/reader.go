package recipient

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Option configures Read.
type Option func(*options)

type options struct {
	encoding  string
	delimiter rune
}

// WithEncoding sets the character encoding of the input, e.g. "windows-1252".
// The default is UTF-8.
func WithEncoding(name string) Option {
	return func(o *options) {
		o.encoding = name
	}
}

// WithDelimiter sets the field delimiter. The default is a comma.
func WithDelimiter(r rune) Option {
	return func(o *options) {
		o.delimiter = r
	}
}

// ReadFile reads the recipient table at path.
func ReadFile(path string, cols Columns, opts ...Option) ([]Recipient, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Join(ErrReadFailed, err)
	}
	defer f.Close()

	return Read(f, cols, opts...)
}

// Read parses a recipient table. Rows are returned in input order; rows whose
// cells are all blank are skipped. A table with a header and no rows yields an
// empty slice.
func Read(r io.Reader, cols Columns, opts ...Option) ([]Recipient, error) {
	o := options{delimiter: ','}
	for _, opt := range opts {
		opt(&o)
	}
	cols = cols.withDefaults()

	in, err := decoder(r, o.encoding)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(in)
	cr.Comma = o.delimiter
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyTable
	}
	if err != nil {
		return nil, errors.Join(ErrReadFailed, err)
	}

	headers := make([]string, len(header))
	index := make(map[string]int, len(header))
	for i, h := range header {
		headers[i] = strings.TrimSpace(h)
		key := normalizeHeader(h)
		if _, dup := index[key]; !dup && key != "" {
			index[key] = i
		}
	}

	nameIdx, ok := index[normalizeHeader(cols.Name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, cols.Name)
	}
	emailIdx, ok := index[normalizeHeader(cols.Email)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, cols.Email)
	}

	var out []Recipient
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Join(ErrReadFailed, err)
		}
		if blank(record) {
			continue
		}

		fields := make(map[string]string, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			if _, seen := fields[h]; seen {
				continue
			}
			fields[h] = cell(record, i)
		}

		out = append(out, Recipient{
			Row:    len(out) + 1,
			Name:   cell(record, nameIdx),
			Email:  cell(record, emailIdx),
			Fields: fields,
		})
	}

	return out, nil
}

// normalizeHeader lowercases h and collapses whitespace.
func normalizeHeader(h string) string {
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}

func cell(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
