package replay

import (
	"bufio"
	"encoding/json"
	"io"
	"os"

	feedv1 "github.com/muhammadchandra19/exchange/internal/domain/feed/v1"
	pkgerrors "github.com/muhammadchandra19/exchange/pkg/errors"
)

// jsonlRow is the on-disk shape of one feedv1.Event, one per line.
type jsonlRow struct {
	Symbol               string `json:"symbol"`
	TsEventNs            uint64 `json:"tsEventNs"`
	Action               string `json:"action"`
	OrderID              uint64 `json:"orderId"`
	Side                 string `json:"side"`
	PriceCents           int64  `json:"priceCents"`
	Qty                  int32  `json:"qty"`
	NewPriceCents        int64  `json:"newPriceCents"`
	NewQty               int32  `json:"newQty"`
	ExecutionIsAggressor bool   `json:"executionIsAggressor"`
}

// JSONLSource is a feedv1.Source reading newline-delimited JSON rows from a
// file path, one feedv1.Event per line, sorted non-decreasingly by
// tsEventNs. It is the reference Source used by tests and the backtest CLI
// for fixture-driven replay.
type JSONLSource struct {
	path string
	f    *os.File
	r    *bufio.Reader
}

// NewJSONLSource constructs a JSONLSource reading from path. Open must be
// called before Next.
func NewJSONLSource(path string) *JSONLSource {
	return &JSONLSource{path: path}
}

// Open opens the underlying file.
func (s *JSONLSource) Open() error {
	f, err := os.Open(s.path)
	if err != nil {
		return pkgerrors.NewTracer("failed to open feed file").Wrap(err)
	}
	s.f = f
	s.r = bufio.NewReader(f)
	return nil
}

// Next decodes the next non-blank line into out.
func (s *JSONLSource) Next(out *feedv1.Event) (bool, error) {
	for {
		line, err := s.r.ReadBytes('\n')
		if len(line) == 0 && err == io.EOF {
			return false, nil
		}
		trimmed := trimJSONLine(line)
		if len(trimmed) == 0 {
			if err == io.EOF {
				return false, nil
			}
			if err != nil {
				return false, pkgerrors.NewTracer("failed reading feed file").Wrap(err)
			}
			continue
		}

		var row jsonlRow
		if decodeErr := json.Unmarshal(trimmed, &row); decodeErr != nil {
			return false, pkgerrors.NewTracer("failed to decode feed row").Wrap(decodeErr)
		}
		*out = rowToEvent(row)
		return true, nil
	}
}

// Close releases the underlying file handle.
func (s *JSONLSource) Close() error {
	if s.f == nil {
		return nil
	}
	return s.f.Close()
}

func trimJSONLine(line []byte) []byte {
	i, j := 0, len(line)
	for i < j && (line[i] == ' ' || line[i] == '\t' || line[i] == '\n' || line[i] == '\r') {
		i++
	}
	for j > i && (line[j-1] == ' ' || line[j-1] == '\t' || line[j-1] == '\n' || line[j-1] == '\r') {
		j--
	}
	return line[i:j]
}

func rowToEvent(row jsonlRow) feedv1.Event {
	side := feedv1.SideNone
	switch row.Side {
	case "B", "b":
		side = feedv1.SideBuy
	case "S", "s":
		side = feedv1.SideSell
	}

	action := feedv1.Unknown
	switch row.Action {
	case string(feedv1.Add):
		action = feedv1.Add
	case string(feedv1.Cancel):
		action = feedv1.Cancel
	case string(feedv1.Replace):
		action = feedv1.Replace
	case string(feedv1.Execute):
		action = feedv1.Execute
	case string(feedv1.Delete):
		action = feedv1.Delete
	}

	return feedv1.Event{
		Symbol:               row.Symbol,
		TsEventNs:            row.TsEventNs,
		Action:               action,
		OrderID:              row.OrderID,
		Side:                 side,
		PriceCents:           row.PriceCents,
		Qty:                  row.Qty,
		NewPriceCents:        row.NewPriceCents,
		NewQty:               row.NewQty,
		ExecutionIsAggressor: row.ExecutionIsAggressor,
	}
}
