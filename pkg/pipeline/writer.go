package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ruslano69/sqlcp/pkg/adapters"
	"github.com/ruslano69/sqlcp/pkg/core/sqltype"
)

// WriterOptions - параметры писателя
type WriterOptions struct {
	// Target - подключение к БД назначения
	Target adapters.Config

	// Table - имя таблицы или готовый оператор INSERT
	Table string

	// BindTypes - коды привязки; пусто - типы колонок источника
	BindTypes []sqltype.Code

	Logger zerolog.Logger
}

// RowFailure - построчный результат пакета, на котором писатель упал
type RowFailure struct {
	Batch int64   // Номер пакета у этого писателя (с 1)
	Row   int     // Индекс строки в пакете (-1, если неизвестен)
	Codes []int64 // Коды строк до сбойной включительно
}

// Writer - потребитель конвейера: забирает пакеты из очереди и вставляет
// их в БД назначения через собственное соединение
type Writer struct {
	id     int
	name   string
	opts   WriterOptions
	queue  *BatchQueue
	reader *Reader
	logger zerolog.Logger

	stmt  string
	types []sqltype.Code

	stats counters
	done  chan struct{}

	mu      sync.Mutex
	err     error
	failure *RowFailure
}

// NewWriter создает писателя. Соединение открывается в Run
func NewWriter(id int, opts WriterOptions, q *BatchQueue, reader *Reader) *Writer {
	name := fmt.Sprintf("writer#%d", id)
	opts.Target.Mode = adapters.ModeReadWrite

	types := opts.BindTypes
	if len(types) == 0 {
		types = adapters.ColumnTypes(reader.Columns())
	}

	return &Writer{
		id:     id,
		name:   name,
		opts:   opts,
		queue:  q,
		reader: reader,
		logger: opts.Logger.With().Str("worker", name).Logger(),
		stmt:   BuildInsertStatement(opts.Table, adapters.ColumnNames(reader.Columns())),
		types:  types,
		done:   make(chan struct{}),
	}
}

// ExecutePreImport выполняет оператор перед импортом на отдельном
// кратковременном соединении и фиксирует его. Пустой оператор пропускается
func (w *Writer) ExecutePreImport(ctx context.Context, stmt string) error {
	if strings.TrimSpace(stmt) == "" {
		return nil
	}

	start := time.Now()
	adapter, err := adapters.New(ctx, w.opts.Target)
	if err != nil {
		return newError(ErrPreImport, w.name, "connect", err)
	}
	defer adapter.Close(ctx)

	if err := adapter.Exec(ctx, stmt); err != nil {
		return newError(ErrPreImport, w.name, "exec", err)
	}
	if err := adapter.Commit(ctx); err != nil {
		return newError(ErrPreImport, w.name, "commit", err)
	}

	w.logger.Info().Str("sql", stmt).Dur("elapsed", time.Since(start)).Msg("pre-import statement executed")
	return nil
}

// Run подключается к БД назначения и вставляет пакеты, пока читатель
// не завершится и очередь не опустеет. Ошибка сохраняется в Err
func (w *Writer) Run(ctx context.Context) error {
	defer close(w.done)

	err := w.run(ctx)
	if err != nil {
		w.setErr(err)
		w.stats.setState(StateFailed)
		w.logger.Error().Err(err).Int64("rows", w.stats.rows.Load()).Msg("writer failed")
	} else {
		w.stats.setState(StateDone)
	}
	return err
}

func (w *Writer) run(ctx context.Context) (err error) {
	w.stats.setState(StateRunning)

	start := time.Now()
	adapter, err := adapters.New(ctx, w.opts.Target)
	w.stats.initTime.Store(int64(time.Since(start)))
	if err != nil {
		return newError(ErrConnection, w.name, "connect", err)
	}

	defer func() {
		closeCtx := context.WithoutCancel(ctx)
		if err == nil {
			if cerr := adapter.Commit(closeCtx); cerr != nil {
				err = newError(ErrInsert, w.name, "commit", cerr)
			}
		}
		if cerr := adapter.Close(closeCtx); cerr != nil {
			w.logger.Warn().Err(cerr).Msg("failed to close destination connection")
		}
	}()

	for {
		// Канал берется до проверки очереди, чтобы не пропустить Push
		changed := w.queue.Changed()
		readerDone := w.reader.Finished()

		batch, ok := w.queue.TryPop()
		if !ok {
			if readerDone {
				return nil
			}
			w.stats.setState(StateWaiting)
			waitStart := time.Now()
			select {
			case <-changed:
			case <-w.reader.Done():
			case <-ctx.Done():
				w.stats.addWait(waitStart)
				return ctx.Err()
			}
			w.stats.addWait(waitStart)
			w.stats.setState(StateRunning)
			continue
		}

		batchNo := w.stats.batches.Load() + 1
		dbStart := time.Now()
		res, err := adapter.ExecBatch(ctx, w.stmt, batch, w.types)
		if err != nil {
			w.stats.addDB(dbStart)
			w.recordFailure(batchNo, res, err)
			return newError(ErrInsert, w.name, fmt.Sprintf("batch %d", batchNo), err)
		}
		if err := adapter.Commit(ctx); err != nil {
			w.stats.addDB(dbStart)
			return newError(ErrInsert, w.name, "commit", err)
		}
		w.stats.addDB(dbStart)

		w.stats.rows.Add(int64(len(batch)))
		w.stats.batches.Add(1)
	}
}

func (w *Writer) recordFailure(batchNo int64, res adapters.BatchResult, err error) {
	f := &RowFailure{Batch: batchNo, Row: -1, Codes: res.Codes}
	var be *adapters.BatchError
	if errors.As(err, &be) {
		f.Row = be.Row
		f.Codes = be.Codes
	}
	w.mu.Lock()
	w.failure = f
	w.mu.Unlock()
}

func (w *Writer) setErr(err error) {
	w.mu.Lock()
	w.err = err
	w.mu.Unlock()
}

// ID возвращает номер писателя
func (w *Writer) ID() int {
	return w.id
}

// Statement возвращает оператор вставки
func (w *Writer) Statement() string {
	return w.stmt
}

// Done закрывается после завершения Run
func (w *Writer) Done() <-chan struct{} {
	return w.done
}

// Err возвращает ошибку, с которой завершился писатель
func (w *Writer) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// RowFailure возвращает построчный отчет о сбойном пакете или nil
func (w *Writer) RowFailure() *RowFailure {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.failure
}

// Stats возвращает снимок счетчиков
func (w *Writer) Stats() WriterStats {
	return WriterStats{
		ID:       w.id,
		InitTime: time.Duration(w.stats.initTime.Load()),
		DBTime:   time.Duration(w.stats.dbTime.Load()),
		WaitTime: time.Duration(w.stats.waitTime.Load()),
		Rows:     w.stats.rows.Load(),
		Batches:  w.stats.batches.Load(),
		State:    w.stats.getState(),
	}
}
