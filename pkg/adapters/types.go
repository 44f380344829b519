package adapters

import (
	"fmt"

	"github.com/ruslano69/sqlcp/pkg/core/sqltype"
)

// Column - описание колонки результата
type Column struct {
	Name             string       // Имя колонки
	DatabaseTypeName string       // Имя типа в терминах драйвера
	Type             sqltype.Code // Код SQL-типа
}

// ColumnNames возвращает имена колонок
func ColumnNames(cols []Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

// ColumnTypes возвращает коды типов колонок
func ColumnTypes(cols []Column) []sqltype.Code {
	types := make([]sqltype.Code, len(cols))
	for i, c := range cols {
		types[i] = c.Type
	}
	return types
}

// Коды результата выполнения строки пакета
const (
	// SuccessNoInfo - строка выполнена, количество затронутых строк неизвестно
	SuccessNoInfo int64 = -2

	// ExecuteFailed - выполнение строки завершилось ошибкой
	ExecuteFailed int64 = -3
)

// BatchResult - результат выполнения пакета: по одному коду на строку
// (количество затронутых строк либо SuccessNoInfo)
type BatchResult struct {
	Codes []int64
}

// RowsAffected возвращает сумму известных кодов
func (r BatchResult) RowsAffected() int64 {
	var total int64
	for _, c := range r.Codes {
		if c > 0 {
			total += c
		}
	}
	return total
}

// BatchError - ошибка выполнения пакета. Codes содержит коды строк,
// выполненных до ошибки, и ExecuteFailed для строки Row
type BatchError struct {
	Row   int
	Codes []int64
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch row %d failed: %v", e.Row, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// NewBatchError формирует BatchError, дописывая ExecuteFailed для упавшей строки
func NewBatchError(rowIndex int, done []int64, err error) *BatchError {
	codes := make([]int64, 0, len(done)+1)
	codes = append(codes, done...)
	codes = append(codes, ExecuteFailed)
	return &BatchError{Row: rowIndex, Codes: codes, Err: err}
}
