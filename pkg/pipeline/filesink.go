package pipeline

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ruslano69/sqlcp/pkg/adapters"
	"github.com/ruslano69/sqlcp/pkg/core/row"
	"github.com/ruslano69/sqlcp/pkg/processors"
	"github.com/ruslano69/sqlcp/pkg/xlsx"
)

const sinkName = "sink"

// RecordWriter - формат вывода файлового приемника
type RecordWriter interface {
	// WriteHeader пишет строку заголовка
	WriteHeader(columns []adapters.Column) error

	// WriteRow пишет строку; counter - сквозной номер строки с 1
	WriteRow(counter int64, r row.Row) error

	// Close сбрасывает буферы и закрывает назначение
	Close() error
}

// OpenDestination готовит файл назначения: каталог и существующий файл без
// режима OVERWRITE отклоняются, существующий файл в режиме OVERWRITE удаляется
func OpenDestination(name, mode string) (*os.File, error) {
	info, err := os.Stat(name)
	switch {
	case err == nil && info.IsDir():
		abs, _ := filepath.Abs(name)
		return nil, newError(ErrDestinationConflict, sinkName, "open",
			fmt.Errorf("destination file is a directory: %s", abs))
	case err == nil && !strings.EqualFold(mode, FileModeOverwrite):
		abs, _ := filepath.Abs(name)
		return nil, newError(ErrDestinationConflict, sinkName, "open",
			fmt.Errorf("destination file already exists: %s", abs))
	case err == nil:
		if err := os.Remove(name); err != nil {
			return nil, newError(ErrIO, sinkName, "remove", err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return nil, newError(ErrIO, sinkName, "stat", err)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if strings.EqualFold(mode, FileModeAppend) {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(name, flags, 0o644)
	if err != nil {
		return nil, newError(ErrIO, sinkName, "open", err)
	}
	return f, nil
}

// textWriter - разделенный текст: значения в двойных кавычках,
// кавычки внутри экранируются обратной косой чертой, строки через \n
// без завершающего перевода строки
type textWriter struct {
	sep     string
	counter bool
	null    string

	dst     io.WriteCloser // nil для stdout
	out     *processors.Output
	bw      *bufio.Writer
	started bool
}

func newTextWriter(dst io.Writer, closer io.WriteCloser, cfg FileConfig) (*textWriter, error) {
	out, err := processors.NewOutput(dst, processors.OutputOptions{
		Compress: cfg.Compress,
		Checksum: cfg.Checksum,
	})
	if err != nil {
		return nil, err
	}
	return &textWriter{
		sep:     cfg.Separator,
		counter: cfg.RowCounter,
		null:    cfg.Formats.Null,
		dst:     closer,
		out:     out,
		bw:      bufio.NewWriterSize(out, 64*1024),
	}, nil
}

var _ RecordWriter = (*xlsx.Writer)(nil)

var quoteEscaper = strings.NewReplacer(`"`, `\"`)

func (t *textWriter) newline() {
	if t.started {
		t.bw.WriteByte('\n')
	}
	t.started = true
}

func (t *textWriter) quoted(s string) {
	t.bw.WriteByte('"')
	quoteEscaper.WriteString(t.bw, s)
	t.bw.WriteByte('"')
}

func (t *textWriter) WriteHeader(columns []adapters.Column) error {
	t.newline()
	for i, c := range columns {
		if i > 0 {
			t.bw.WriteString(t.sep)
		}
		t.quoted(c.Name)
	}
	_, err := t.bw.Write(nil)
	return err
}

func (t *textWriter) WriteRow(counter int64, r row.Row) error {
	t.newline()
	if t.counter {
		t.bw.WriteString(strconv.FormatInt(counter, 10))
		t.bw.WriteString(t.sep)
	}
	for i := 0; i < r.Len(); i++ {
		if i > 0 {
			t.bw.WriteString(t.sep)
		}
		s, ok := r.String(i)
		if !ok {
			s = t.null
		}
		t.quoted(s)
	}
	// bufio хранит первую ошибку записи и возвращает ее при каждом вызове
	_, err := t.bw.Write(nil)
	return err
}

func (t *textWriter) Close() error {
	var errs []error
	if err := t.bw.Flush(); err != nil {
		errs = append(errs, fmt.Errorf("flush: %w", err))
	}
	if err := t.out.Close(); err != nil {
		errs = append(errs, err)
	}
	if t.dst != nil {
		if err := t.dst.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close: %w", err))
		}
	}
	return errors.Join(errs...)
}

// SinkStats - счетчики файлового приемника
type SinkStats struct {
	OutputTime time.Duration // Время записи в назначение
	WaitTime   time.Duration // Время ожидания читателя
	Rows       int64
	Bytes      int64
	Checksum   string
}

// FileSink - единственный потребитель в режиме выгрузки в файл.
// Работает в горутине оркестратора
type FileSink struct {
	cfg    FileConfig
	target string
	writer RecordWriter
	text   *textWriter
	path   string
	logger zerolog.Logger

	stats  SinkStats
	closed bool
}

// OpenFileSink открывает назначение. Пустое cfg.Name означает stdout
func OpenFileSink(cfg FileConfig, stdout io.Writer, logger zerolog.Logger) (*FileSink, error) {
	s := &FileSink{
		cfg:    cfg,
		target: cfg.Name,
		path:   cfg.Name,
		logger: logger.With().Str("worker", sinkName).Logger(),
	}
	if s.target == "" {
		s.target = "Console"
	}

	if cfg.Format == FormatXLSX {
		// Проверяем конфликт назначения до создания книги
		f, err := OpenDestination(cfg.Name, cfg.Mode)
		if err != nil {
			return nil, err
		}
		f.Close()

		w, err := xlsx.NewWriter(cfg.Name, xlsx.Options{Sheet: cfg.Sheet, RowCounter: cfg.RowCounter})
		if err != nil {
			return nil, newError(ErrIO, sinkName, "open", err)
		}
		s.writer = w
		return s, nil
	}

	var (
		dst    io.Writer = stdout
		closer io.WriteCloser
	)
	if cfg.Name != "" {
		f, err := OpenDestination(cfg.Name, cfg.Mode)
		if err != nil {
			return nil, err
		}
		dst, closer = f, f
	}

	tw, err := newTextWriter(dst, closer, cfg)
	if err != nil {
		if closer != nil {
			closer.Close()
		}
		return nil, newError(ErrIO, sinkName, "open", err)
	}
	s.writer = tw
	s.text = tw
	return s, nil
}

// Target возвращает имя назначения для сводки
func (s *FileSink) Target() string {
	return s.target
}

// Run забирает пакеты из очереди, пока читатель не завершится и очередь
// не опустеет. tick вызывается с периодом poll во время ожидания и между
// пакетами (строка состояния, освобождение памяти)
func (s *FileSink) Run(ctx context.Context, q *BatchQueue, reader *Reader, poll time.Duration, tick func()) (err error) {
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if poll <= 0 {
		poll = DefaultPollInterval
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	if s.cfg.Header {
		start := time.Now()
		if err := s.writer.WriteHeader(reader.Columns()); err != nil {
			return newError(ErrIO, sinkName, "header", err)
		}
		s.stats.OutputTime += time.Since(start)
	}

	for {
		changed := q.Changed()
		readerDone := reader.Finished()

		batch, ok := q.TryPop()
		if !ok {
			if readerDone {
				return nil
			}
			waitStart := time.Now()
			select {
			case <-changed:
			case <-reader.Done():
			case <-ticker.C:
				if tick != nil {
					tick()
				}
			case <-ctx.Done():
				s.stats.WaitTime += time.Since(waitStart)
				return ctx.Err()
			}
			s.stats.WaitTime += time.Since(waitStart)
			continue
		}

		start := time.Now()
		for _, r := range batch {
			s.stats.Rows++
			if err := s.writer.WriteRow(s.stats.Rows, r); err != nil {
				return newError(ErrIO, sinkName, "write", err)
			}
		}
		s.stats.OutputTime += time.Since(start)

		select {
		case <-ticker.C:
			if tick != nil {
				tick()
			}
		default:
		}
	}
}

// Close сбрасывает буферы и закрывает назначение. Повторный вызов ничего не делает
func (s *FileSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	start := time.Now()
	err := s.writer.Close()
	s.stats.OutputTime += time.Since(start)

	if s.text != nil {
		s.stats.Bytes = s.text.out.BytesWritten()
		s.stats.Checksum = s.text.out.Checksum()
	} else if s.path != "" && err == nil {
		if s.cfg.Checksum {
			sum, size, sumErr := processors.ChecksumFile(s.path)
			if sumErr != nil {
				return newError(ErrIO, sinkName, "checksum", sumErr)
			}
			s.stats.Bytes, s.stats.Checksum = size, sum
		} else if info, statErr := os.Stat(s.path); statErr == nil {
			s.stats.Bytes = info.Size()
		}
	}

	if err != nil {
		return newError(ErrIO, sinkName, "close", err)
	}
	return nil
}

// Stats возвращает счетчики приемника
func (s *FileSink) Stats() SinkStats {
	return s.stats
}
