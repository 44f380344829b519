package processors

import (
	"errors"
	"fmt"
	"io"
)

// OutputOptions - обработка потока перед записью в файл назначения
type OutputOptions struct {
	// Compress - уровень zstd: 1 (самый быстрый) - 22 (лучшее сжатие), 0 - без сжатия
	Compress int

	// Checksum - считать XXH3 байт, записанных в назначение
	Checksum bool
}

// Output - цепочка обработки выходного потока:
//
//	данные -> [zstd] -> [xxh3] -> счетчик байт -> назначение
//
// Контрольная сумма и размер относятся к байтам, фактически попавшим в назначение
type Output struct {
	counter    *CountingWriter
	checksum   *ChecksumWriter
	compressor *CompressionWriter
	head       io.Writer
}

// NewOutput собирает цепочку поверх dst
func NewOutput(dst io.Writer, opts OutputOptions) (*Output, error) {
	o := &Output{counter: NewCountingWriter(dst)}
	o.head = o.counter

	if opts.Checksum {
		o.checksum = NewChecksumWriter(o.head)
		o.head = o.checksum
	}

	if opts.Compress > 0 {
		cw, err := NewCompressionWriter(o.head, opts.Compress)
		if err != nil {
			return nil, err
		}
		o.compressor = cw
		o.head = cw
	}

	return o, nil
}

// Write пишет данные в начало цепочки
func (o *Output) Write(p []byte) (int, error) {
	return o.head.Write(p)
}

// Close завершает сжатый кадр. Назначение не закрывается
func (o *Output) Close() error {
	if o.compressor != nil {
		if err := o.compressor.Close(); err != nil {
			return fmt.Errorf("failed to finish compression: %w", err)
		}
	}
	return nil
}

// BytesWritten возвращает число байт, записанных в назначение
func (o *Output) BytesWritten() int64 {
	return o.counter.Count()
}

// Checksum возвращает XXH3 записанных байт или пустую строку
func (o *Output) Checksum() string {
	if o.checksum == nil {
		return ""
	}
	return o.checksum.Sum()
}

// CountingWriter считает записанные байты
type CountingWriter struct {
	w io.Writer
	n int64
}

// NewCountingWriter создает счетчик поверх w
func NewCountingWriter(w io.Writer) *CountingWriter {
	return &CountingWriter{w: w}
}

func (c *CountingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	return n, err
}

// Count возвращает число записанных байт
func (c *CountingWriter) Count() int64 {
	return c.n
}

var errClosed = errors.New("writer is closed")
