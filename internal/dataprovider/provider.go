// Package dataprovider implements C5: a header-first CSV source shared by
// every worker in a run, advancing a strictly incrementing row pointer
// under a single mutex and wrapping around to the top of the file once
// exhausted.
package dataprovider

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/forgewave/bombard/internal/model"
)

// Provider reads rows from a CSV file one at a time, merging each row with
// the header row into a name->value map. When the file is exhausted it is
// rewound and the header row is re-skipped, so a run with more iterations
// than data rows cycles the file instead of failing.
type Provider struct {
	mu      sync.Mutex
	file    *os.File
	reader  *csv.Reader
	headers []string
}

// Open reads and retains the header row from path, positioning the reader
// at the first data row.
func Open(path string) (*Provider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening data file: %v", model.ErrDataProviderError, err)
	}

	reader := newCSVReader(f)
	headers, err := reader.Read()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: reading header row: %v", model.ErrDataProviderError, err)
	}

	return &Provider{file: f, reader: reader, headers: headers}, nil
}

func newCSVReader(f *os.File) *csv.Reader {
	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	return r
}

// Next returns the next record merged with the header row. At end of file
// the reader rewinds to the start and re-skips the header row before
// returning the first data row again.
func (p *Provider) Next() (map[string]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	record, err := p.reader.Read()
	if err == io.EOF {
		if _, seekErr := p.file.Seek(0, io.SeekStart); seekErr != nil {
			return nil, fmt.Errorf("%w: rewinding data file: %v", model.ErrDataProviderError, seekErr)
		}
		p.reader = newCSVReader(p.file)
		if _, err := p.reader.Read(); err != nil {
			return nil, fmt.Errorf("%w: re-reading header row after wrap-around: %v", model.ErrDataProviderError, err)
		}
		record, err = p.reader.Read()
		if err != nil {
			return nil, fmt.Errorf("%w: reading first data row after wrap-around: %v", model.ErrDataProviderError, err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("%w: reading data row: %v", model.ErrDataProviderError, err)
	}

	row := make(map[string]string, len(p.headers))
	for i, name := range p.headers {
		if i < len(record) {
			row[name] = record[i]
		}
	}
	return row, nil
}

// Close releases the underlying file handle.
func (p *Provider) Close() error {
	return p.file.Close()
}
