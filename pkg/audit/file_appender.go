package audit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileAppender - запись JSON-строк в файл с ротацией по размеру
type FileAppender struct {
	mu          sync.Mutex
	file        *os.File
	filePath    string
	maxSize     int64 // Максимальный размер файла в байтах
	maxBackups  int   // Количество backup файлов
	currentSize int64
}

// FileAppenderConfig - конфигурация file appender
type FileAppenderConfig struct {
	FilePath   string `yaml:"file"`
	MaxSize    int64  `yaml:"max_size_mb,omitempty"` // В мегабайтах
	MaxBackups int    `yaml:"max_backups,omitempty"`
}

// NewFileAppender - создать file appender
func NewFileAppender(config FileAppenderConfig) (*FileAppender, error) {
	if config.FilePath == "" {
		return nil, fmt.Errorf("audit file path is required")
	}

	// Создаем директорию если не существует
	if err := os.MkdirAll(filepath.Dir(config.FilePath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.OpenFile(config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	maxSize := config.MaxSize
	if maxSize == 0 {
		maxSize = 100 // По умолчанию 100 MB
	}
	maxBackups := config.MaxBackups
	if maxBackups == 0 {
		maxBackups = 5
	}

	return &FileAppender{
		file:        file,
		filePath:    config.FilePath,
		maxSize:     maxSize * 1024 * 1024,
		maxBackups:  maxBackups,
		currentSize: info.Size(),
	}, nil
}

// Append - записать entry в файл одной строкой JSON
func (fa *FileAppender) Append(ctx context.Context, entry *Entry) error {
	data, err := entry.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}
	data = append(data, '\n')

	fa.mu.Lock()
	defer fa.mu.Unlock()

	if fa.file == nil {
		return fmt.Errorf("audit file %s is closed", fa.filePath)
	}

	if fa.currentSize > 0 && fa.currentSize+int64(len(data)) > fa.maxSize {
		if err := fa.rotate(); err != nil {
			return fmt.Errorf("failed to rotate file: %w", err)
		}
	}

	n, err := fa.file.Write(data)
	fa.currentSize += int64(n)
	if err != nil {
		return fmt.Errorf("failed to write entry: %w", err)
	}
	return nil
}

// rotate сдвигает backup файлы (.1 -> .2 ...) и начинает новый файл
func (fa *FileAppender) rotate() error {
	if err := fa.file.Close(); err != nil {
		return err
	}

	// Самый старый backup удаляется
	os.Remove(fmt.Sprintf("%s.%d", fa.filePath, fa.maxBackups))
	for i := fa.maxBackups - 1; i > 0; i-- {
		oldPath := fmt.Sprintf("%s.%d", fa.filePath, i)
		if _, err := os.Stat(oldPath); err == nil {
			os.Rename(oldPath, fmt.Sprintf("%s.%d", fa.filePath, i+1))
		}
	}

	if err := os.Rename(fa.filePath, fa.filePath+".1"); err != nil {
		return err
	}

	file, err := os.OpenFile(fa.filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fa.file = nil
		return err
	}
	fa.file = file
	fa.currentSize = 0
	return nil
}

// Close - закрыть файл
func (fa *FileAppender) Close() error {
	fa.mu.Lock()
	defer fa.mu.Unlock()

	if fa.file == nil {
		return nil
	}
	err := fa.file.Close()
	fa.file = nil
	return err
}

// FilePath - путь к файлу
func (fa *FileAppender) FilePath() string {
	return fa.filePath
}
