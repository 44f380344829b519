package processors

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// CompressionWriter сжимает поток с помощью zstd
type CompressionWriter struct {
	encoder *zstd.Encoder
	closed  bool
}

// NewCompressionWriter создает потоковый компрессор поверх w.
// level: 1 (самый быстрый) - 22 (лучшее сжатие). Уровень 3 является хорошим балансом по умолчанию.
func NewCompressionWriter(w io.Writer, level int) (*CompressionWriter, error) {
	opts := []zstd.EOption{
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)),
		zstd.WithEncoderConcurrency(4), // Использовать до 4 ядер для сжатия
	}

	encoder, err := zstd.NewWriter(w, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}

	return &CompressionWriter{encoder: encoder}, nil
}

func (c *CompressionWriter) Write(p []byte) (int, error) {
	if c.closed {
		return 0, errClosed
	}
	return c.encoder.Write(p)
}

// Close дописывает завершающий кадр и освобождает энкодер
func (c *CompressionWriter) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.encoder.Close()
}

// NewDecompressionReader распаковывает zstd-поток.
// Возвращаемый ReadCloser нужно закрыть для освобождения декодера
func NewDecompressionReader(r io.Reader) (io.ReadCloser, error) {
	decoder, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(4))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return decoder.IOReadCloser(), nil
}

// Decompress распаковывает блок данных целиком
func Decompress(input []byte) ([]byte, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	defer decoder.Close()

	out, err := decoder.DecodeAll(input, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress zstd: %w", err)
	}
	return out, nil
}
