package adapters

import (
	"context"
	"time"

	"github.com/ruslano69/sqlcp/pkg/core/row"
	"github.com/ruslano69/sqlcp/pkg/core/sqltype"
)

// Mode - режим доступа соединения
type Mode int

const (
	// ModeReadOnly - соединение только для чтения (источник)
	ModeReadOnly Mode = iota

	// ModeReadWrite - запись с ручной фиксацией транзакций (приемник)
	ModeReadWrite
)

// String возвращает имя режима
func (m Mode) String() string {
	if m == ModeReadOnly {
		return "read-only"
	}
	return "read-write"
}

// Config - универсальная конфигурация подключения к БД
type Config struct {
	// Type - тип СУБД: "sqlite", "postgres", "mssql", "mysql".
	// Пустое значение определяется по DSN (см. DetectType)
	Type string

	// DSN - строка подключения
	// Примеры:
	//   SQLite:     "file:app.db"
	//   PostgreSQL: "postgresql://localhost:5432/dbname"
	//   MS SQL:     "sqlserver://localhost:1433?database=dbname"
	//   MySQL:      "tcp(localhost:3306)/dbname"
	DSN string

	// User, Password - учетные данные, подставляются в DSN при подключении
	User     string
	Password string

	// Mode - режим доступа
	Mode Mode

	// FetchSize - количество строк, которое курсор возвращает за одну выборку
	FetchSize int

	// Timeout - таймаут установки соединения (0 - без ограничения)
	Timeout time.Duration

	// Formats - строковое представление значений для курсоров
	Formats row.Formats
}

// Adapter - соединение с одной БД, которым владеет ровно один
// читатель или писатель конвейера
type Adapter interface {
	// ========== Lifecycle ==========

	// Connect устанавливает соединение в режиме cfg.Mode.
	// ModeReadWrite выключает автоматическую фиксацию
	Connect(ctx context.Context, cfg Config) error

	// Close откатывает незафиксированную работу и освобождает соединение
	Close(ctx context.Context) error

	// Ping проверяет доступность БД
	Ping(ctx context.Context) error

	// GetDatabaseType возвращает тип СУБД
	GetDatabaseType() string

	// ========== Read ==========

	// Prepare выполняет запрос и возвращает потоковый курсор
	Prepare(ctx context.Context, query string) (Cursor, error)

	// ========== Write ==========

	// ExecBatch выполняет параметризованный INSERT (плейсхолдеры "?")
	// для всех строк пакета. types задает коды привязки по колонкам
	ExecBatch(ctx context.Context, stmt string, batch row.Batch, types []sqltype.Code) (BatchResult, error)

	// Exec выполняет произвольный оператор (DDL, DELETE, ...) в текущей транзакции
	Exec(ctx context.Context, stmt string) error

	// Commit фиксирует текущую транзакцию
	Commit(ctx context.Context) error
}

// Cursor - потоковый курсор результата запроса
type Cursor interface {
	// Columns возвращает описание колонок результата
	Columns() []Column

	// Next возвращает следующий пакет из не более FetchSize строк.
	// nil без ошибки означает, что данные закончились
	Next(ctx context.Context) (row.Batch, error)

	// Close освобождает курсор
	Close() error
}
