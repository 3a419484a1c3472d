package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/SpareCarry/sparecarry-sub004/internal/record"
)

func TestEvaluate(t *testing.T) {
	row := record.New(map[string]any{
		"origin": "Lisbon",
		"weight": 5,
		"price":  12.5,
		"tags":   []string{"fragile", "docs"},
		"note":   nil,
		"urgent": true,
	})

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"eq string", Eq{Column: "origin", Value: "Lisbon"}, true},
		{"eq differs", Eq{Column: "origin", Value: "lisbon"}, false},
		{"eq number across kinds", Eq{Column: "weight", Value: 5.0}, true},
		{"eq no string coercion", Eq{Column: "weight", Value: "5"}, false},
		{"neq", Neq{Column: "origin", Value: "Porto"}, true},
		{"neq missing field", Neq{Column: "missing", Value: "x"}, true},
		{"gt", Gt{Column: "weight", Value: int64(3)}, true},
		{"gt equal", Gt{Column: "weight", Value: int64(5)}, false},
		{"gte equal", Gte{Column: "weight", Value: int64(5)}, true},
		{"lt float", Lt{Column: "price", Value: 20.0}, true},
		{"lte", Lte{Column: "price", Value: 12.5}, true},
		{"gt string", Gt{Column: "origin", Value: "Berlin"}, true},
		{"gt mixed kinds never match", Gt{Column: "weight", Value: "1"}, false},
		{"gt null never matches", Gt{Column: "note", Value: int64(0)}, false},
		{"like prefix", Like{Column: "origin", Pattern: "Lis%"}, true},
		{"like is case sensitive", Like{Column: "origin", Pattern: "lis%"}, false},
		{"like unanchored", Like{Column: "origin", Pattern: "sbo"}, true},
		{"like literal dot", Like{Column: "origin", Pattern: "L.sbon"}, false},
		{"like number coerced", Like{Column: "weight", Pattern: "5"}, true},
		{"like null", Like{Column: "note", Pattern: "%"}, false},
		{"ilike folds case", ILike{Column: "origin", Pattern: "%LIS%"}, true},
		{"ilike suffix", ILike{Column: "origin", Pattern: "%BON"}, true},
		{"is equal", Is{Column: "urgent", Value: true}, true},
		{"is null field", Is{Column: "note", Value: true}, true},
		{"is missing field", Is{Column: "missing", Value: "x"}, true},
		{"is differs", Is{Column: "urgent", Value: false}, false},
		{"in member", In{Column: "origin", Values: []any{"Porto", "Lisbon"}}, true},
		{"in non member", In{Column: "origin", Values: []any{"Porto"}}, false},
		{"in empty set", In{Column: "origin", Values: nil}, false},
		{"contains", Contains{Column: "tags", Value: "docs"}, true},
		{"contains absent", Contains{Column: "tags", Value: "food"}, false},
		{"contains non array", Contains{Column: "origin", Value: "L"}, false},
		{"contains null", Contains{Column: "note", Value: "x"}, false},
		{"or is not evaluated", Or{Expr: "origin.eq.Porto"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.filter, row))
		})
	}
}

func TestMatchesAll_EmptyMatchesEverything(t *testing.T) {
	assert.True(t, MatchesAll(nil, record.Record{"a": int64(1)}))
}

func TestApply_PreservesOrder(t *testing.T) {
	rows := []record.Record{
		{"id": "a", "n": int64(1)},
		{"id": "b", "n": int64(2)},
		{"id": "c", "n": int64(3)},
	}

	got := Apply([]Filter{Neq{Column: "id", Value: "b"}}, rows)

	assert.Equal(t, []record.Record{rows[0], rows[2]}, got)
}

func TestFilterString(t *testing.T) {
	tests := []struct {
		filter Filter
		want   string
	}{
		{Eq{Column: "status", Value: "open"}, "status=eq.open"},
		{Gte{Column: "weight", Value: int64(5)}, "weight=gte.5"},
		{ILike{Column: "origin", Pattern: "%lis%"}, "origin=ilike.%lis%"},
		{Is{Column: "note", Value: nil}, "note=is.null"},
		{In{Column: "status", Values: []any{"open", "pending"}}, "status=in.(open,pending)"},
		{Contains{Column: "tags", Value: "docs"}, `tags=cs."docs"`},
		{Or{Expr: "a.eq.1,b.eq.2"}, "or=(a.eq.1,b.eq.2)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.String())
		})
	}
}
