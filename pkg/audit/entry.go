package audit

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/ruslano69/sqlcp/pkg/pipeline"
)

// Operation - тип операции
type Operation string

const (
	OpCopy      Operation = "copy"       // Прогон БД -> БД
	OpExport    Operation = "export"     // Прогон БД -> файл
	OpPreImport Operation = "pre_import" // Оператор перед импортом
	OpUpload    Operation = "upload"     // Загрузка файла в хранилище
	OpPublish   Operation = "publish"    // Публикация результата
)

// Status - статус выполнения операции
type Status string

const (
	StatusStarted Status = "started"
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Entry - запись в audit логе
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Operation Operation `json:"operation"`
	Status    Status    `json:"status"`

	// User - пользователь ОС, запустивший прогон
	User string `json:"user,omitempty"`

	// Source, Target - источник и назначение без паролей
	Source string `json:"source,omitempty"`
	Target string `json:"target,omitempty"`

	// Resource - запрос источника, таблица или файл
	Resource string `json:"resource,omitempty"`

	RecordsAffected int64         `json:"records_affected,omitempty"`
	Duration        time.Duration `json:"duration,omitempty"`
	ErrorMessage    string        `json:"error_message,omitempty"`

	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewEntry - создать новую audit запись
func NewEntry(operation Operation, status Status) *Entry {
	return &Entry{
		ID:        generateID(),
		Timestamp: time.Now(),
		Operation: operation,
		Status:    status,
	}
}

// OperationFor возвращает операцию для режима прогона
func OperationFor(mode string) Operation {
	if mode == pipeline.ModeDBToFile {
		return OpExport
	}
	return OpCopy
}

// FromSummary строит итоговую запись прогона
func FromSummary(sum *pipeline.Summary) *Entry {
	status := StatusSuccess
	if !sum.Success() {
		status = StatusFailure
	}

	target := sum.Destination
	if sum.Mode == pipeline.ModeDBToFile {
		target = sum.Target
	}

	e := NewEntry(OperationFor(sum.Mode), status).
		WithSource(sum.Source).
		WithTarget(target).
		WithResource(sum.Data).
		WithRecordsAffected(sum.RowsWritten()).
		WithDuration(sum.ExecTime).
		WithError(sum.Err).
		WithMetadata("rows_read", sum.RowsRead())

	if sum.Mode == pipeline.ModeDBToDB {
		e.WithMetadata("table", sum.Target).
			WithMetadata("threads", len(sum.Writers)).
			WithMetadata("batches", sum.Batches())
	}
	if sum.Sink != nil {
		e.WithMetadata("bytes", sum.Sink.Bytes)
		if sum.Sink.Checksum != "" {
			e.WithMetadata("checksum", "xxh3:"+sum.Sink.Checksum)
		}
	}
	for i, f := range sum.Failures {
		e.WithMetadata("failed_batch_"+strconv.Itoa(i), fmt.Sprintf("batch=%d row=%d codes=%v", f.Batch, f.Row, f.Codes))
	}
	return e
}

// WithUser - установить пользователя
func (e *Entry) WithUser(user string) *Entry {
	e.User = user
	return e
}

// WithSource - установить источник
func (e *Entry) WithSource(source string) *Entry {
	e.Source = source
	return e
}

// WithTarget - установить назначение
func (e *Entry) WithTarget(target string) *Entry {
	e.Target = target
	return e
}

// WithResource - установить ресурс
func (e *Entry) WithResource(resource string) *Entry {
	e.Resource = resource
	return e
}

// WithRecordsAffected - установить количество записей
func (e *Entry) WithRecordsAffected(count int64) *Entry {
	e.RecordsAffected = count
	return e
}

// WithDuration - установить длительность
func (e *Entry) WithDuration(duration time.Duration) *Entry {
	e.Duration = duration
	return e
}

// WithError - установить ошибку; nil не меняет статус
func (e *Entry) WithError(err error) *Entry {
	if err != nil {
		e.ErrorMessage = err.Error()
		e.Status = StatusFailure
	}
	return e
}

// WithMetadata - добавить метаданные
func (e *Entry) WithMetadata(key string, value any) *Entry {
	if e.Metadata == nil {
		e.Metadata = make(map[string]any)
	}
	e.Metadata[key] = value
	return e
}

// ToJSON - преобразовать в JSON
func (e *Entry) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// String - строковое представление
func (e *Entry) String() string {
	return fmt.Sprintf("[%s] %s %s %s (resource=%s, records=%d, duration=%v)",
		e.Timestamp.Format(time.RFC3339),
		e.Operation,
		e.Status,
		e.User,
		e.Resource,
		e.RecordsAffected,
		e.Duration,
	)
}

var idSeq atomic.Int64

// generateID - генерация уникального ID
func generateID() string {
	return fmt.Sprintf("audit-%d-%d", time.Now().UnixNano(), idSeq.Add(1))
}
