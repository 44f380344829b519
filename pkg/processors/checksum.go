package processors

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/xxh3"
)

// ChecksumWriter считает xxh3 (64-bit) проходящих через него данных
type ChecksumWriter struct {
	w      io.Writer
	hasher *xxh3.Hasher
}

// NewChecksumWriter создает writer, который пишет в w и хеширует записанное
func NewChecksumWriter(w io.Writer) *ChecksumWriter {
	return &ChecksumWriter{w: w, hasher: xxh3.New()}
}

func (c *ChecksumWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.hasher.Write(p[:n])
	return n, err
}

// Sum возвращает hex-encoded хеш записанного
func (c *ChecksumWriter) Sum() string {
	return formatHash(c.hasher.Sum64())
}

// ComputeChecksum вычисляет xxh3 хеш данных и возвращает hex-encoded строку.
func ComputeChecksum(data []byte) string {
	return formatHash(xxh3.Hash(data))
}

// ChecksumFile потоково хеширует файл; возвращает hex-хеш и размер
func ChecksumFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	cw := NewChecksumWriter(io.Discard)
	n, err := io.Copy(cw, f)
	if err != nil {
		return "", n, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return cw.Sum(), n, nil
}

// ValidateChecksum проверяет соответствие данных ожидаемому хешу.
// Возвращает ошибку если хеш не совпадает.
func ValidateChecksum(data []byte, expectedHash string) error {
	actual := ComputeChecksum(data)
	if actual != expectedHash {
		return fmt.Errorf(
			"checksum validation failed: expected %s, got %s",
			expectedHash, actual,
		)
	}
	return nil
}

// formatHash кодирует uint64 в hex (big-endian)
func formatHash(v uint64) string {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return hex.EncodeToString(b)
}
