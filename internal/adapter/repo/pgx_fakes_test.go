package repo

import (
	"context"
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type simpleRow struct {
	vals []any
	err  error
}

func (r simpleRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if r.vals == nil {
		return pgx.ErrNoRows
	}
	return assign(dest, r.vals)
}

// assign copies vals into the scan destinations by reflection.
func assign(dest []any, vals []any) error {
	if len(dest) != len(vals) {
		return fmt.Errorf("unexpected scan args: got %d, want %d", len(dest), len(vals))
	}
	for i, d := range dest {
		dv := reflect.ValueOf(d)
		if dv.Kind() != reflect.Pointer {
			return fmt.Errorf("dest %d is not a pointer", i)
		}
		v := reflect.ValueOf(vals[i])
		if !v.Type().AssignableTo(dv.Elem().Type()) {
			return fmt.Errorf("dest %d: cannot assign %s to %s", i, v.Type(), dv.Elem().Type())
		}
		dv.Elem().Set(v)
	}
	return nil
}

type testRows struct {
	rows [][]any
	idx  int
}

func (r *testRows) Close()                                       {}
func (r *testRows) Err() error                                   { return nil }
func (r *testRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *testRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *testRows) Conn() *pgx.Conn                              { return nil }
func (r *testRows) RawValues() [][]byte                          { return nil }

func (r *testRows) Values() ([]any, error) {
	return nil, fmt.Errorf("values not supported in test rows")
}

func (r *testRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}

func (r *testRows) Scan(dest ...any) error {
	if r.idx == 0 || r.idx > len(r.rows) {
		return pgx.ErrNoRows
	}
	return assign(dest, r.rows[r.idx-1])
}

type call struct {
	query string
	args  []any
}

// fakeSQL answers each query from canned rows keyed by the query text.
type fakeSQL struct {
	rows    map[string][]any
	rowErrs map[string]error
	lists   map[string][][]any
	tags    map[string]string
	calls   []call
}

func newFakeSQL() *fakeSQL {
	return &fakeSQL{
		rows:    map[string][]any{},
		rowErrs: map[string]error{},
		lists:   map[string][][]any{},
		tags:    map[string]string{},
	}
}

func (f *fakeSQL) Exec(_ context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, call{query, args})
	if err := f.rowErrs[query]; err != nil {
		return pgconn.CommandTag{}, err
	}
	return pgconn.NewCommandTag(f.tags[query]), nil
}

func (f *fakeSQL) QueryRow(_ context.Context, query string, args ...any) pgx.Row {
	f.calls = append(f.calls, call{query, args})
	return simpleRow{vals: f.rows[query], err: f.rowErrs[query]}
}

func (f *fakeSQL) Query(_ context.Context, query string, args ...any) (pgx.Rows, error) {
	f.calls = append(f.calls, call{query, args})
	if err := f.rowErrs[query]; err != nil {
		return nil, err
	}
	return &testRows{rows: f.lists[query]}, nil
}

func (f *fakeSQL) last() call {
	if len(f.calls) == 0 {
		return call{}
	}
	return f.calls[len(f.calls)-1]
}
