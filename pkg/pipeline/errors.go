package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// Виды ошибок конвейера. Проверяются через errors.Is
var (
	// ErrConnection - не удалось открыть соединение с источником или приемником
	ErrConnection = errors.New("connection error")

	// ErrPrepare - не удалось подготовить запрос источника или оператор приемника
	ErrPrepare = errors.New("prepare error")

	// ErrFetch - ошибка чтения пакета из курсора источника
	ErrFetch = errors.New("fetch error")

	// ErrPreImport - ошибка выполнения оператора перед импортом
	ErrPreImport = errors.New("pre-import error")

	// ErrInsert - ошибка вставки или фиксации пакета
	ErrInsert = errors.New("insert error")

	// ErrDestinationConflict - файл назначения является каталогом или уже существует
	ErrDestinationConflict = errors.New("destination conflict")

	// ErrIO - ошибка записи, сброса буфера или закрытия файла назначения
	ErrIO = errors.New("io error")
)

// Error - ошибка конвейера с указанием вида, операции и исполнителя
type Error struct {
	Kind   error  // Один из Err* выше
	Op     string // Операция: "connect", "fetch", "insert", ...
	Worker string // "reader", "writer#2", "sink"
	Err    error  // Причина
}

func (e *Error) Error() string {
	var sb strings.Builder
	if e.Worker != "" {
		sb.WriteString(e.Worker)
		sb.WriteString(": ")
	}
	sb.WriteString(e.Kind.Error())
	if e.Op != "" {
		sb.WriteString(" (")
		sb.WriteString(e.Op)
		sb.WriteString(")")
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

// Is сопоставляет ошибку с ее видом
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind error, worker, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Worker: worker, Err: err}
}

// RunError - итоговая ошибка прогона, объединяющая ошибки всех исполнителей
type RunError struct {
	Errors []error
}

func (e *RunError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d errors: %s", len(e.Errors), strings.Join(msgs, "; "))
}

func (e *RunError) Unwrap() []error {
	return e.Errors
}

// joinRunErrors возвращает nil, если ошибок нет
func joinRunErrors(errs []error) error {
	var nonNil []error
	for _, err := range errs {
		if err != nil {
			nonNil = append(nonNil, err)
		}
	}
	if len(nonNil) == 0 {
		return nil
	}
	return &RunError{Errors: nonNil}
}
