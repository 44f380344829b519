package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ruslano69/sqlcp/pkg/adapters"
	"github.com/ruslano69/sqlcp/pkg/core/row"
)

// Option настраивает прогон
type Option func(*runOptions)

type runOptions struct {
	logger  zerolog.Logger
	stdout  io.Writer
	summary io.Writer
	poll    time.Duration

	printSummary bool
}

// WithLogger задает логгер прогона
func WithLogger(l zerolog.Logger) Option {
	return func(o *runOptions) { o.logger = l }
}

// WithStdout задает вывод для файлового режима без имени файла
func WithStdout(w io.Writer) Option {
	return func(o *runOptions) { o.stdout = w }
}

// WithSummaryWriter задает вывод итоговой сводки (по умолчанию stderr)
func WithSummaryWriter(w io.Writer) Option {
	return func(o *runOptions) { o.summary = w }
}

// WithPollInterval задает период опроса супервизора
func WithPollInterval(d time.Duration) Option {
	return func(o *runOptions) { o.poll = d }
}

func newRunOptions(opts []Option) runOptions {
	o := runOptions{
		logger:  zerolog.Nop(),
		stdout:  os.Stdout,
		summary: os.Stderr,
		poll:    DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// supervisor - периодические действия оркестратора: строка состояния
// и принудительное освобождение памяти
type supervisor struct {
	runtime RuntimeConfig
	logger  zerolog.Logger
	started time.Time
	status  func() string

	lastStatus time.Time
	lastGC     time.Time
	gcTime     time.Duration
	memPeak    uint64
}

func newSupervisor(rt RuntimeConfig, logger zerolog.Logger, status func() string) *supervisor {
	now := time.Now()
	return &supervisor{
		runtime:    rt,
		logger:     logger,
		started:    now,
		status:     status,
		lastStatus: now,
		lastGC:     now,
		memPeak:    memoryMB(),
	}
}

func (s *supervisor) tick() {
	now := time.Now()

	if mem := memoryMB(); mem > s.memPeak {
		s.memPeak = mem
	}

	if s.runtime.StatusInterval > 0 && now.Sub(s.lastStatus) >= s.runtime.StatusInterval {
		s.lastStatus = now
		s.logger.Info().Msg(s.status())
	}

	if s.runtime.GCInterval > 0 && now.Sub(s.lastGC) >= s.runtime.GCInterval {
		start := time.Now()
		debug.FreeOSMemory()
		s.gcTime += time.Since(start)
		s.lastGC = time.Now()
	}
}

// wait вызывает tick с периодом poll, пока не закроется done
func (s *supervisor) wait(done <-chan struct{}, poll time.Duration) {
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func readerStatus(r *Reader, q *BatchQueue, started time.Time) string {
	rs := r.Stats()
	return fmt.Sprintf("mem=%dM; queue=%d; T=%s; in(%s rcvd=%d dbT=%s; waitT=%s)",
		memoryMB(), q.Rows(), FormatMs(time.Since(started)),
		rs.State, rs.Rows, FormatMs(rs.DBTime), FormatMs(rs.WaitTime))
}

// RunDBToDB копирует результат запроса источника в таблицу назначения
// через пул писателей. Сводка возвращается и при ошибке прогона
func RunDBToDB(ctx context.Context, cfg DBToDBConfig, opts ...Option) (*Summary, error) {
	o := newRunOptions(opts)
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	bindTypes, _ := cfg.Target.ParsedBindTypes()
	o.printSummary = cfg.Runtime.PrintSummary
	logger := o.logger.With().Str("mode", ModeDBToDB).Logger()

	sum := &Summary{
		Mode:            ModeDBToDB,
		Source:          adapters.MaskDSN(cfg.Source.DSN),
		SourceUser:      cfg.Source.User,
		Data:            cfg.Source.Data,
		Destination:     adapters.MaskDSN(cfg.Target.DSN),
		DestUser:        cfg.Target.User,
		Target:          cfg.Target.Target,
		MaxBufferedRows: cfg.Source.BufferedRows,
		Started:         time.Now(),
	}

	q := NewBatchQueue()
	reader, err := NewReader(ctx, cfg.Source.AdapterConfig(row.Formats{}), ReaderOptions{
		Query:           cfg.Source.Data,
		MaxBufferedRows: cfg.Source.BufferedRows,
		BatchSize:       cfg.Source.BatchSize,
		Logger:          logger,
	}, q)
	if err != nil {
		return finish(sum, o, logger, nil, err), sum.Err
	}
	defer reader.Close(context.WithoutCancel(ctx))

	reader.Start(ctx)

	writers := make([]*Writer, cfg.Target.Threads)
	for i := range writers {
		writers[i] = NewWriter(i, WriterOptions{
			Target:    cfg.Target.AdapterConfig(),
			Table:     cfg.Target.Target,
			BindTypes: bindTypes,
			Logger:    logger,
		}, q, reader)
	}
	logger.Info().Str("sql", writers[0].Statement()).Int("threads", len(writers)).Msg("insert statement prepared")

	if err := writers[0].ExecutePreImport(ctx, cfg.Target.SQLBeforeImport); err != nil {
		reader.Terminate()
		reader.Close(context.WithoutCancel(ctx))
		sum.Reader = reader.Stats()
		return finish(sum, o, logger, nil, err), sum.Err
	}

	var g errgroup.Group
	for _, w := range writers {
		g.Go(func() error { return w.Run(ctx) })
	}
	allDone := make(chan struct{})
	go func() {
		g.Wait()
		close(allDone)
	}()

	sup := newSupervisor(cfg.Runtime, logger, func() string {
		states := make([]State, len(writers))
		var rows int64
		var dbT, waitT time.Duration
		for i, w := range writers {
			ws := w.Stats()
			states[i] = ws.State
			rows += ws.Rows
			dbT += ws.DBTime
			waitT += ws.WaitTime
		}
		return fmt.Sprintf("%s; out*%d(%s ins=%d dbT=%s; waitT=%s)",
			readerStatus(reader, q, sum.Started), len(writers), stateHistogram(states),
			rows, FormatMs(dbT), FormatMs(waitT))
	})
	sup.wait(allDone, o.poll)

	reader.Terminate()
	reader.Close(context.WithoutCancel(ctx))

	sum.Reader = reader.Stats()
	sum.QueuePeakRows = q.MaxRows()
	sum.GCTime = sup.gcTime
	sum.MemPeakMB = sup.memPeak

	var errs []error
	for _, w := range writers {
		sum.Writers = append(sum.Writers, w.Stats())
		if err := w.Err(); err != nil {
			errs = append(errs, err)
			if f := w.RowFailure(); f != nil {
				sum.Failures = append(sum.Failures, *f)
			}
		}
	}
	errs = append(errs, reader.Err())

	return finish(sum, o, logger, errs, nil), sum.Err
}

// RunDBToFile выгружает результат запроса источника в файл или stdout
func RunDBToFile(ctx context.Context, cfg DBToFileConfig, opts ...Option) (*Summary, error) {
	o := newRunOptions(opts)
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	o.printSummary = cfg.Runtime.PrintSummary
	logger := o.logger.With().Str("mode", ModeDBToFile).Logger()

	sum := &Summary{
		Mode:            ModeDBToFile,
		Source:          adapters.MaskDSN(cfg.Source.DSN),
		SourceUser:      cfg.Source.User,
		Data:            cfg.Source.Data,
		FileMode:        cfg.File.Mode,
		MaxBufferedRows: cfg.Source.BufferedRows,
		Started:         time.Now(),
	}

	q := NewBatchQueue()
	reader, err := NewReader(ctx, cfg.Source.AdapterConfig(cfg.File.Formats), ReaderOptions{
		Query:           cfg.Source.Data,
		MaxBufferedRows: cfg.Source.BufferedRows,
		BatchSize:       cfg.Source.BatchSize,
		Logger:          logger,
	}, q)
	if err != nil {
		return finish(sum, o, logger, nil, err), sum.Err
	}
	defer reader.Close(context.WithoutCancel(ctx))

	sink, err := OpenFileSink(cfg.File, o.stdout, logger)
	if err != nil {
		reader.Close(context.WithoutCancel(ctx))
		sum.Reader = reader.Stats()
		return finish(sum, o, logger, nil, err), sum.Err
	}
	sum.Target = sink.Target()

	reader.Start(ctx)

	sup := newSupervisor(cfg.Runtime, logger, func() string {
		ss := sink.Stats()
		return fmt.Sprintf("%s; out(rows=%d outT=%s; waitT=%s)",
			readerStatus(reader, q, sum.Started), ss.Rows, FormatMs(ss.OutputTime), FormatMs(ss.WaitTime))
	})
	sinkErr := sink.Run(ctx, q, reader, o.poll, sup.tick)

	reader.Terminate()
	reader.Close(context.WithoutCancel(ctx))

	stats := sink.Stats()
	sum.Sink = &stats
	sum.Reader = reader.Stats()
	sum.QueuePeakRows = q.MaxRows()
	sum.GCTime = sup.gcTime
	sum.MemPeakMB = sup.memPeak

	return finish(sum, o, logger, []error{sinkErr, reader.Err()}, nil), sum.Err
}

// finish фиксирует итог, логирует результат и печатает сводку
func finish(sum *Summary, o runOptions, logger zerolog.Logger, errs []error, fatal error) *Summary {
	if fatal != nil {
		errs = append(errs, fatal)
	}
	sum.Finished = time.Now()
	sum.ExecTime = sum.Finished.Sub(sum.Started)
	if mem := memoryMB(); mem > sum.MemPeakMB {
		sum.MemPeakMB = mem
	}
	sum.Err = joinRunErrors(errs)

	if o.printSummary {
		sum.WriteTo(o.summary)
	}

	if sum.Err != nil {
		for _, err := range sum.Err.(*RunError).Errors {
			logger.Error().Err(err).Msg("worker error")
		}
		logger.Error().Int64("rows", sum.RowsWritten()).Dur("elapsed", sum.ExecTime).Msg("copy failed")
		return sum
	}

	logger.Info().
		Int64("rows", sum.RowsWritten()).
		Dur("elapsed", sum.ExecTime).
		Msg("copy done")
	return sum
}
