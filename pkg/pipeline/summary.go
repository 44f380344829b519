package pipeline

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Режимы прогона
const (
	ModeDBToDB   = "db2db"
	ModeDBToFile = "db2file"
)

const timeLayout = "2006-01-02 15:04:05"

// Summary - итог прогона конвейера
type Summary struct {
	Mode string

	// Источник и назначение без паролей
	Source      string
	SourceUser  string
	Data        string
	Destination string
	DestUser    string
	Target      string
	FileMode    string

	Started  time.Time
	Finished time.Time
	ExecTime time.Duration
	GCTime   time.Duration

	// MemPeakMB - наибольший объем памяти процесса за прогон
	MemPeakMB uint64

	MaxBufferedRows int
	QueuePeakRows   int

	Reader  ReaderStats
	Writers []WriterStats
	Sink    *SinkStats

	// Failures - построчные отчеты упавших писателей
	Failures []RowFailure

	Err error
}

// Success сообщает, завершился ли прогон без ошибок
func (s *Summary) Success() bool {
	return s.Err == nil
}

// RowsRead возвращает число прочитанных строк
func (s *Summary) RowsRead() int64 {
	return s.Reader.Rows
}

// RowsWritten возвращает число строк, вставленных писателями или записанных в файл
func (s *Summary) RowsWritten() int64 {
	if s.Sink != nil {
		return s.Sink.Rows
	}
	var n int64
	for _, w := range s.Writers {
		n += w.Rows
	}
	return n
}

// Batches возвращает число вставленных пакетов
func (s *Summary) Batches() int64 {
	var n int64
	for _, w := range s.Writers {
		n += w.Batches
	}
	return n
}

// BytesWritten возвращает размер вывода в файловом режиме
func (s *Summary) BytesWritten() int64 {
	if s.Sink == nil {
		return 0
	}
	return s.Sink.Bytes
}

// WriteTo печатает сводку в текстовом виде
func (s *Summary) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder
	if s.Mode == ModeDBToFile {
		s.writeFile(&sb)
	} else {
		s.writeDB(&sb)
	}
	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}

func (s *Summary) writeDB(sb *strings.Builder) {
	var init, wait, insert time.Duration
	for _, ws := range s.Writers {
		init += ws.InitTime
		wait += ws.WaitTime
		insert += ws.DBTime
	}
	rows := s.RowsWritten()
	batches := s.Batches()

	fmt.Fprintln(sb, "SUMMARY")
	fmt.Fprintf(sb, "source     : host=%s, user=%s, data=[[%s]]\n", s.Source, s.SourceUser, s.Data)
	fmt.Fprintf(sb, "destination: host=%s, user=%s, target=%s\n", s.Destination, s.DestUser, s.Target)
	fmt.Fprintf(sb, "readProc   : init=%s, wait=%s, fetch=%s, %drows/sec, %drows fetched\n",
		FormatMs(s.Reader.InitTime), FormatMs(s.Reader.WaitTime), FormatMs(s.Reader.DBTime),
		RowsPerSec(s.Reader.Rows, s.Reader.DBTime+s.Reader.InitTime), s.Reader.Rows)
	fmt.Fprintf(sb, "writeProc  : init=%s, wait=%s, threads=%d, insert=%s, %drows/sec, %d*executeBatch/commit, %drows inserted\n",
		FormatMs(init), FormatMs(wait), len(s.Writers), FormatMs(insert),
		RowsPerSec(rows, insert), batches, rows)

	fmt.Fprintf(sb, "summary    : execTime=%s, ", FormatMs(s.ExecTime))
	if s.GCTime > 0 {
		fmt.Fprintf(sb, "gcTime=%s, ", FormatMs(s.GCTime))
	}
	fmt.Fprintf(sb, "memPeak=%dM, outThreads=%d, rows=%d, (rows/sec)=%d\n",
		s.MemPeakMB, len(s.Writers), s.Reader.Rows, RowsPerSec(s.Reader.Rows, s.ExecTime))

	for _, f := range s.Failures {
		fmt.Fprintf(sb, "failed batch: batch=%d, row=%d, codes=%v\n", f.Batch, f.Row, f.Codes)
	}
}

func (s *Summary) writeFile(sb *strings.Builder) {
	var sink SinkStats
	if s.Sink != nil {
		sink = *s.Sink
	}
	sec := s.ExecTime.Seconds()
	var bytesPerSec, mbPerSec float64
	if sec > 0 {
		bytesPerSec = float64(sink.Bytes) / sec
		mbPerSec = bytesPerSec / (1 << 20)
	}

	fmt.Fprintln(sb, "SUMMARY")
	fmt.Fprintf(sb, "target        : %s\n", s.Target)
	fmt.Fprintf(sb, "mode          : %s\n", s.FileMode)
	fmt.Fprintf(sb, "started       : %s\n", s.Started.Format(timeLayout))
	fmt.Fprintf(sb, "finished      : %s\n", s.Finished.Format(timeLayout))
	fmt.Fprintf(sb, "exec time     : %s\n", FormatMs(s.ExecTime))
	fmt.Fprintf(sb, "rows exported : %d\n", sink.Rows)
	fmt.Fprintf(sb, "connect time  : %s\n", FormatMs(s.Reader.InitTime))
	fmt.Fprintf(sb, "read time     : %s\n", FormatMs(s.Reader.DBTime))
	fmt.Fprintf(sb, "wait time     : %s (buffered rows max %d, peak %d)\n",
		FormatMs(s.Reader.WaitTime), s.MaxBufferedRows, s.QueuePeakRows)
	fmt.Fprintf(sb, "output time   : %s\n", FormatMs(sink.OutputTime))
	fmt.Fprintf(sb, "output size   : %s (%d bytes)\n", humanize.IBytes(uint64(sink.Bytes)), sink.Bytes)
	fmt.Fprintf(sb, "bytes/sec     : %.0f\n", bytesPerSec)
	fmt.Fprintf(sb, "mb/sec        : %.2f\n", mbPerSec)
	fmt.Fprintf(sb, "rows/sec      : %d\n", RowsPerSec(sink.Rows, s.ExecTime))
	fmt.Fprintf(sb, "max memory    : %dM\n", s.MemPeakMB)
	if sink.Checksum != "" {
		fmt.Fprintf(sb, "checksum      : xxh3:%s\n", sink.Checksum)
	}
}
