// Package replay feeds recorded prices from a CSV file.
package replay

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fd1az/defi-trader/business/perp/app"
	"github.com/fd1az/defi-trader/internal/apperror"
)

// DefaultColumn is the close price in a time,open,high,low,close row.
const DefaultColumn = 4

var _ app.PriceSource = (*Source)(nil)

// Source replays one price per call and returns app.ErrNoMorePrices once
// every row has been served.
type Source struct {
	prices []decimal.Decimal
	next   int
}

// Open loads path. column < 0 uses DefaultColumn.
func Open(path string, column int) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithCause(err),
			apperror.WithContext("price file "+path))
	}
	defer f.Close()

	return Read(f, column)
}

// Read parses r. A first row whose price does not parse is treated as a
// header; any other bad row is an error.
func Read(r io.Reader, column int) (*Source, error) {
	if column < 0 {
		column = DefaultColumn
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var prices []decimal.Decimal
	for line := 1; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperror.New(apperror.CodeInvalidInput, apperror.WithCause(err))
		}
		if len(row) <= column {
			return nil, apperror.New(apperror.CodeInvalidInput,
				apperror.WithContext(fmt.Sprintf("line %d: %d fields, price column is %d", line, len(row), column)))
		}

		p, err := decimal.NewFromString(strings.TrimSpace(row[column]))
		if err != nil {
			if line == 1 {
				continue
			}
			return nil, apperror.New(apperror.CodeInvalidInput,
				apperror.WithCause(err),
				apperror.WithContext(fmt.Sprintf("line %d", line)))
		}
		if !p.IsPositive() {
			return nil, apperror.New(apperror.CodeInvalidInput,
				apperror.WithContext(fmt.Sprintf("line %d: price %s", line, p)))
		}
		prices = append(prices, p)
	}

	return &Source{prices: prices}, nil
}

func (s *Source) Price(ctx context.Context) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	if s.next >= len(s.prices) {
		return decimal.Zero, app.ErrNoMorePrices
	}
	p := s.prices[s.next]
	s.next++
	return p, nil
}

// Len is the number of prices loaded.
func (s *Source) Len() int {
	return len(s.prices)
}

// Remaining is the number of prices not yet served.
func (s *Source) Remaining() int {
	return len(s.prices) - s.next
}
