package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ruslano69/sqlcp/pkg/adapters"
	"github.com/ruslano69/sqlcp/pkg/core/row"
	"github.com/ruslano69/sqlcp/pkg/core/sqltype"
)

// fakeDB - база в памяти для тестов конвейера, адресуется по DSN "fake://<name>"
type fakeDB struct {
	columns []adapters.Column
	rows    [][]any

	connectErr error
	prepareErr error
	execErr    error
	// fetchErrAt - номер выборки (с 1), на которой курсор вернет ошибку
	fetchErrAt int
	// badValue - строка, содержащая это значение, не вставляется
	badValue any

	mu        sync.Mutex
	committed [][]any
	execs     []string
	stmts     []string
	connects  atomic.Int32
	closes    atomic.Int32
}

var fakeDBs sync.Map

func init() {
	adapters.Register("fake", func() adapters.Adapter { return &fakeAdapter{} })
}

var fakeSeq atomic.Int64

// newFakeDB регистрирует базу и возвращает конфигурацию подключения к ней
func newFakeDB(db *fakeDB) adapters.Config {
	dsn := fmt.Sprintf("fake://db%d", fakeSeq.Add(1))
	fakeDBs.Store(dsn, db)
	return adapters.Config{Type: "fake", DSN: dsn}
}

// assertReleased проверяет, что каждое открытое соединение закрыто
func (db *fakeDB) assertReleased(t *testing.T, name string) {
	t.Helper()
	if c, cl := db.connects.Load(), db.closes.Load(); c != cl {
		t.Errorf("%s: %d connections opened, %d closed", name, c, cl)
	}
}

func (db *fakeDB) committedRows() [][]any {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([][]any(nil), db.committed...)
}

type fakeAdapter struct {
	db      *fakeDB
	cfg     adapters.Config
	pending [][]any
	closed  bool
}

func (a *fakeAdapter) Connect(ctx context.Context, cfg adapters.Config) error {
	v, ok := fakeDBs.Load(cfg.DSN)
	if !ok {
		return fmt.Errorf("no fake database %q", cfg.DSN)
	}
	db := v.(*fakeDB)
	if db.connectErr != nil {
		return db.connectErr
	}
	db.connects.Add(1)
	a.db = db
	a.cfg = cfg
	return nil
}

func (a *fakeAdapter) Close(ctx context.Context) error {
	a.pending = nil
	if a.db != nil && !a.closed {
		a.closed = true
		a.db.closes.Add(1)
	}
	return nil
}

func (a *fakeAdapter) Ping(ctx context.Context) error { return nil }

func (a *fakeAdapter) GetDatabaseType() string { return "fake" }

func (a *fakeAdapter) Prepare(ctx context.Context, query string) (adapters.Cursor, error) {
	if a.db.prepareErr != nil {
		return nil, a.db.prepareErr
	}
	a.db.mu.Lock()
	a.db.stmts = append(a.db.stmts, query)
	a.db.mu.Unlock()

	size := a.cfg.FetchSize
	if size <= 0 {
		size = 1000
	}
	return &fakeCursor{
		db:       a.db,
		size:     size,
		renderer: row.NewRenderer(a.cfg.Formats, adapters.ColumnTypes(a.db.columns)),
	}, nil
}

func (a *fakeAdapter) ExecBatch(ctx context.Context, stmt string, batch row.Batch, types []sqltype.Code) (adapters.BatchResult, error) {
	if a.cfg.Mode != adapters.ModeReadWrite {
		return adapters.BatchResult{}, errors.New("connection is read-only")
	}
	codes := make([]int64, 0, len(batch))
	for i, r := range batch {
		if a.db.badValue != nil {
			for _, v := range r.Values() {
				if v == a.db.badValue {
					return adapters.BatchResult{Codes: codes}, adapters.NewBatchError(i, codes, errors.New("constraint violation"))
				}
			}
		}
		a.pending = append(a.pending, r.Values())
		codes = append(codes, 1)
	}
	return adapters.BatchResult{Codes: codes}, nil
}

func (a *fakeAdapter) Exec(ctx context.Context, stmt string) error {
	if a.db.execErr != nil {
		return a.db.execErr
	}
	a.db.mu.Lock()
	a.db.execs = append(a.db.execs, stmt)
	a.db.mu.Unlock()
	return nil
}

func (a *fakeAdapter) Commit(ctx context.Context) error {
	a.db.mu.Lock()
	a.db.committed = append(a.db.committed, a.pending...)
	a.db.mu.Unlock()
	a.pending = nil
	return nil
}

type fakeCursor struct {
	db       *fakeDB
	size     int
	pos      int
	fetches  int
	renderer *row.Renderer
}

func (c *fakeCursor) Columns() []adapters.Column { return c.db.columns }

func (c *fakeCursor) Next(ctx context.Context) (row.Batch, error) {
	c.fetches++
	if c.db.fetchErrAt > 0 && c.fetches == c.db.fetchErrAt {
		return nil, errors.New("network reset")
	}
	if c.pos >= len(c.db.rows) {
		return nil, nil
	}
	end := min(c.pos+c.size, len(c.db.rows))
	batch := make(row.Batch, 0, end-c.pos)
	for _, values := range c.db.rows[c.pos:end] {
		batch = append(batch, row.New(values, c.renderer))
	}
	c.pos = end
	return batch, nil
}

func (c *fakeCursor) Close() error { return nil }

// sourceRows строит n строк (id, name)
func sourceRows(n int) [][]any {
	rows := make([][]any, n)
	for i := range rows {
		rows[i] = []any{int64(i + 1), fmt.Sprintf("name-%d", i+1)}
	}
	return rows
}

var twoColumns = []adapters.Column{
	{Name: "id", DatabaseTypeName: "INTEGER", Type: sqltype.Integer},
	{Name: "name", DatabaseTypeName: "TEXT", Type: sqltype.VarChar},
}
