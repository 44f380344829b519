package pipeline

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ruslano69/sqlcp/pkg/adapters"
)

const readerName = "reader"

var selectPattern = regexp.MustCompile(`(?i)select\s`)

// SourceQuery возвращает запрос источника: строка с "select" используется
// как есть, иначе она считается именем таблицы
func SourceQuery(data string) string {
	if selectPattern.MatchString(data) {
		return data
	}
	return "SELECT * FROM " + data
}

// ReaderOptions - параметры читателя
type ReaderOptions struct {
	// Query - SELECT-запрос или имя таблицы
	Query string

	// MaxBufferedRows - порог строк в очереди, при котором читатель ждет
	MaxBufferedRows int

	// BatchSize - строк в одной выборке
	BatchSize int

	Logger zerolog.Logger
}

// Reader - единственный производитель конвейера: читает пакеты из курсора
// источника и кладет их в очередь, соблюдая порог обратного давления
type Reader struct {
	opts   ReaderOptions
	queue  *BatchQueue
	logger zerolog.Logger

	adapter adapters.Adapter
	cursor  adapters.Cursor
	columns []adapters.Column

	stats counters

	started   bool
	done      chan struct{}
	terminate chan struct{}
	stopOnce  sync.Once
	closeOnce sync.Once

	mu  sync.Mutex
	err error
}

// NewReader подключается к источнику в режиме только для чтения
// и подготавливает потоковый курсор
func NewReader(ctx context.Context, cfg adapters.Config, opts ReaderOptions, q *BatchQueue) (*Reader, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.MaxBufferedRows <= 0 {
		opts.MaxBufferedRows = DefaultBufferedRows
	}

	r := &Reader{
		opts:      opts,
		queue:     q,
		logger:    opts.Logger.With().Str("worker", readerName).Logger(),
		done:      make(chan struct{}),
		terminate: make(chan struct{}),
	}

	start := time.Now()
	cfg.Mode = adapters.ModeReadOnly
	cfg.FetchSize = opts.BatchSize

	adapter, err := adapters.New(ctx, cfg)
	if err != nil {
		return nil, newError(ErrConnection, readerName, "connect", err)
	}

	query := SourceQuery(opts.Query)
	cursor, err := adapter.Prepare(ctx, query)
	if err != nil {
		adapter.Close(ctx)
		return nil, newError(ErrPrepare, readerName, "prepare", err)
	}

	r.adapter = adapter
	r.cursor = cursor
	r.columns = cursor.Columns()
	r.stats.initTime.Store(int64(time.Since(start)))

	r.logger.Debug().
		Str("query", query).
		Int("columns", len(r.columns)).
		Dur("init", time.Since(start)).
		Msg("source prepared")

	return r, nil
}

// Start запускает цикл чтения в отдельной горутине
func (r *Reader) Start(ctx context.Context) {
	r.started = true
	r.stats.setState(StateRunning)
	go r.run(ctx)
}

func (r *Reader) run(ctx context.Context) {
	defer close(r.done)
	defer r.release(context.WithoutCancel(ctx))

	for {
		if r.terminated() {
			r.stats.setState(StateTerminated)
			return
		}

		start := time.Now()
		batch, err := r.cursor.Next(ctx)
		r.stats.addDB(start)
		if err != nil {
			r.fail(ctx, err)
			return
		}
		if batch == nil {
			break
		}

		r.queue.Push(batch)
		r.stats.batches.Add(1)
		r.stats.rows.Add(int64(len(batch)))

		if !r.wait(ctx, r.opts.MaxBufferedRows) {
			r.stop(ctx)
			return
		}
	}

	r.logger.Debug().Int64("rows", r.stats.rows.Load()).Msg("source exhausted, waiting for queue to drain")

	if !r.wait(ctx, 1) {
		r.stop(ctx)
		return
	}
	r.stats.setState(StateDone)
}

// wait ждет, пока в очереди станет меньше limit строк
func (r *Reader) wait(ctx context.Context, limit int) bool {
	if r.queue.Rows() < limit {
		return true
	}
	r.stats.setState(StateWaiting)
	start := time.Now()
	ok := r.queue.WaitBelow(ctx, limit, r.terminate)
	r.stats.addWait(start)
	if ok {
		r.stats.setState(StateRunning)
	}
	return ok
}

// stop фиксирует причину досрочного выхода: отмену контекста или Terminate
func (r *Reader) stop(ctx context.Context) {
	if err := ctx.Err(); err != nil && !r.terminated() {
		r.setErr(err)
		r.stats.setState(StateFailed)
		return
	}
	r.stats.setState(StateTerminated)
}

func (r *Reader) fail(ctx context.Context, err error) {
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		r.setErr(ctxErr)
	} else {
		r.setErr(newError(ErrFetch, readerName, "fetch", err))
	}
	r.stats.setState(StateFailed)
	r.logger.Error().Err(err).Int64("rows", r.stats.rows.Load()).Msg("fetch failed")
}

func (r *Reader) setErr(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

func (r *Reader) terminated() bool {
	select {
	case <-r.terminate:
		return true
	default:
		return false
	}
}

// release закрывает курсор и соединение. Повторные вызовы ничего не делают
func (r *Reader) release(ctx context.Context) {
	r.closeOnce.Do(func() {
		if r.cursor != nil {
			if err := r.cursor.Close(); err != nil {
				r.logger.Warn().Err(err).Msg("failed to close cursor")
			}
		}
		if r.adapter != nil {
			if err := r.adapter.Close(ctx); err != nil {
				r.logger.Warn().Err(err).Msg("failed to close source connection")
			}
		}
	})
}

// Terminate просит читателя завершиться при ближайшей возможности,
// не дожидаясь опустошения очереди
func (r *Reader) Terminate() {
	r.stopOnce.Do(func() { close(r.terminate) })
}

// Close завершает читателя и освобождает ресурсы
func (r *Reader) Close(ctx context.Context) {
	r.Terminate()
	if r.started {
		<-r.done
		return
	}
	r.release(ctx)
}

// Done закрывается, когда цикл чтения завершен и ресурсы освобождены
func (r *Reader) Done() <-chan struct{} {
	return r.done
}

// Finished сообщает, завершен ли цикл чтения
func (r *Reader) Finished() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Err возвращает ошибку, с которой завершился читатель
func (r *Reader) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Stats возвращает снимок счетчиков
func (r *Reader) Stats() ReaderStats {
	return ReaderStats{
		InitTime: time.Duration(r.stats.initTime.Load()),
		DBTime:   time.Duration(r.stats.dbTime.Load()),
		WaitTime: time.Duration(r.stats.waitTime.Load()),
		Rows:     r.stats.rows.Load(),
		Fetches:  r.stats.batches.Load(),
		State:    r.stats.getState(),
	}
}

// Columns возвращает описание колонок источника
func (r *Reader) Columns() []adapters.Column {
	return r.columns
}

// ColumnCount возвращает число колонок источника
func (r *Reader) ColumnCount() int {
	return len(r.columns)
}

// MaxBufferedRows возвращает порог обратного давления
func (r *Reader) MaxBufferedRows() int {
	return r.opts.MaxBufferedRows
}
