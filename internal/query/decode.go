package query

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/SpareCarry/sparecarry-sub004/internal/record"
)

// Decode maps rows onto a typed struct slice through their JSON form, using
// the struct's json tags.
//
//	type Trip struct {
//		ID     string `json:"id"`
//		Status string `json:"status"`
//	}
//	trips, err := query.Decode[Trip](res.Data)
func Decode[T any](rows []record.Record) ([]T, error) {
	b, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("marshal rows: %w", err)
	}
	out := make([]T, 0, len(rows))
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode rows into %T: %w", out, err)
	}
	return out, nil
}

// DecodeOne maps a single row onto T. A nil row yields the zero value and
// ok=false.
func DecodeOne[T any](row record.Record) (v T, ok bool, err error) {
	if row == nil {
		return v, false, nil
	}
	b, err := json.Marshal(row)
	if err != nil {
		return v, false, fmt.Errorf("marshal row: %w", err)
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return v, false, fmt.Errorf("decode row into %T: %w", v, err)
	}
	return v, true, nil
}
