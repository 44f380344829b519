package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ruslano69/sqlcp/pkg/adapters"
	"github.com/ruslano69/sqlcp/pkg/core/row"
	"github.com/ruslano69/sqlcp/pkg/core/sqltype"
)

func openTestDB(t *testing.T, path string, mode adapters.Mode) adapters.Adapter {
	t.Helper()

	adapter, err := adapters.New(context.Background(), adapters.Config{
		Type:      "sqlite",
		DSN:       path,
		Mode:      mode,
		FetchSize: 2,
	})
	if err != nil {
		t.Fatalf("Failed to create adapter: %v", err)
	}
	t.Cleanup(func() { adapter.Close(context.Background()) })
	return adapter
}

func TestAdapter_WriteAndRead(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "rw.db")

	w := openTestDB(t, path, adapters.ModeReadWrite)
	if w.GetDatabaseType() != "sqlite" {
		t.Errorf("Expected type 'sqlite', got '%s'", w.GetDatabaseType())
	}

	if err := w.Exec(ctx, "CREATE TABLE users (id INTEGER, name TEXT)"); err != nil {
		t.Fatalf("Exec failed: %v", err)
	}
	if err := w.Commit(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	batch := row.Batch{
		row.New([]any{int64(1), "alice"}, nil),
		row.New([]any{int64(2), nil}, nil),
		row.New([]any{"3", "carol"}, nil),
	}
	res, err := w.ExecBatch(ctx, "insert into users(id,name) values (?,?)", batch,
		[]sqltype.Code{sqltype.Integer, sqltype.VarChar})
	if err != nil {
		t.Fatalf("ExecBatch failed: %v", err)
	}
	if len(res.Codes) != 3 || res.RowsAffected() != 3 {
		t.Errorf("Expected 3 codes of 1, got %v", res.Codes)
	}
	if err := w.Commit(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	r := openTestDB(t, path, adapters.ModeReadOnly)
	cur, err := r.Prepare(ctx, "SELECT id, name FROM users ORDER BY id")
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	defer cur.Close()

	cols := cur.Columns()
	if len(cols) != 2 || cols[0].Name != "id" || cols[1].Name != "name" {
		t.Fatalf("Unexpected columns: %+v", cols)
	}
	if cols[0].Type != sqltype.Integer {
		t.Errorf("Expected id type INTEGER, got %v", cols[0].Type)
	}

	var sizes []int
	var names []string
	for {
		b, err := cur.Next(ctx)
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if b == nil {
			break
		}
		sizes = append(sizes, len(b))
		for _, rr := range b {
			s, ok := rr.String(1)
			if !ok {
				s = "<null>"
			}
			names = append(names, s)
		}
	}

	if len(sizes) != 2 || sizes[0] != 2 || sizes[1] != 1 {
		t.Errorf("Expected batches [2 1], got %v", sizes)
	}
	want := []string{"alice", "<null>", "carol"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Row %d: expected %q, got %q", i, want[i], names[i])
		}
	}
}

func TestAdapter_ReadOnlyRejectsWrites(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ro.db")

	w := openTestDB(t, path, adapters.ModeReadWrite)
	if err := w.Exec(ctx, "CREATE TABLE t (x INTEGER)"); err != nil {
		t.Fatalf("Exec failed: %v", err)
	}
	if err := w.Commit(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	r := openTestDB(t, path, adapters.ModeReadOnly)
	if err := r.Exec(ctx, "INSERT INTO t VALUES (1)"); err == nil {
		t.Error("Expected error writing through read-only connection")
	}
}

func TestAdapter_BatchErrorReportsRow(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "err.db")

	w := openTestDB(t, path, adapters.ModeReadWrite)
	if err := w.Exec(ctx, "CREATE TABLE t (id INTEGER PRIMARY KEY)"); err != nil {
		t.Fatalf("Exec failed: %v", err)
	}

	batch := row.Batch{
		row.New([]any{int64(1)}, nil),
		row.New([]any{int64(2)}, nil),
		row.New([]any{int64(1)}, nil),
	}
	_, err := w.ExecBatch(ctx, "insert into t(id) values (?)", batch, nil)
	if err == nil {
		t.Fatal("Expected duplicate key error")
	}

	var be *adapters.BatchError
	if !errors.As(err, &be) {
		t.Fatalf("Expected *adapters.BatchError, got %T", err)
	}
	if be.Row != 2 {
		t.Errorf("Expected failing row 2, got %d", be.Row)
	}
	if len(be.Codes) != 3 || be.Codes[2] != adapters.ExecuteFailed {
		t.Errorf("Unexpected codes: %v", be.Codes)
	}
}

func TestAdapter_CloseRollsBack(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "rb.db")

	w := openTestDB(t, path, adapters.ModeReadWrite)
	if err := w.Exec(ctx, "CREATE TABLE t (x INTEGER)"); err != nil {
		t.Fatalf("Exec failed: %v", err)
	}
	if err := w.Commit(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if _, err := w.ExecBatch(ctx, "insert into t(x) values (?)", row.Batch{row.New([]any{int64(1)}, nil)}, nil); err != nil {
		t.Fatalf("ExecBatch failed: %v", err)
	}
	if err := w.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	r := openTestDB(t, path, adapters.ModeReadOnly)
	cur, err := r.Prepare(ctx, "SELECT COUNT(*) FROM t")
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	defer cur.Close()

	b, err := cur.Next(ctx)
	if err != nil || len(b) != 1 {
		t.Fatalf("Next failed: %v", err)
	}
	if got, _ := b[0].String(0); got != "0" {
		t.Errorf("Expected 0 rows after rollback, got %s", got)
	}
}
