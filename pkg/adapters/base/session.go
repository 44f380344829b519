package base

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ruslano69/sqlcp/pkg/adapters"
	"github.com/ruslano69/sqlcp/pkg/core/row"
	"github.com/ruslano69/sqlcp/pkg/core/sqltype"
)

// Dialect - особенности конкретной СУБД для Session
type Dialect struct {
	// Name - тип СУБД для фабрики ("sqlite", "mssql", "mysql")
	Name string

	// DriverName - имя драйвера database/sql
	DriverName string

	// Placeholder - синтаксис параметров
	Placeholder adapters.PlaceholderStyle

	// ReadOnly - операторы, выполняемые на соединении в режиме только для чтения
	ReadOnly []string

	// ReadWrite - операторы, выполняемые на соединении в режиме записи
	ReadWrite []string

	// TypeOf - необязательное отображение имени типа драйвера в код;
	// по умолчанию sqltype.FromDatabaseTypeName
	TypeOf func(dbTypeName string) sqltype.Code

	// Normalize - необязательная нормализация значения драйвера перед
	// помещением в строку (например, UNIQUEIDENTIFIER -> строка)
	Normalize func(col adapters.Column, v any) any
}

// Session - адаптер database/sql с одним монопольным соединением
type Session struct {
	dialect Dialect
	cfg     adapters.Config

	db   *sql.DB
	conn *sql.Conn
	tx   *sql.Tx

	// подготовленные в текущей транзакции операторы
	stmts map[string]*sql.Stmt
}

// NewSession создает неподключенную сессию для диалекта
func NewSession(d Dialect) *Session {
	return &Session{dialect: d}
}

// Connect открывает соединение и переводит его в режим cfg.Mode
func (s *Session) Connect(ctx context.Context, cfg adapters.Config) error {
	cfg.Type = s.dialect.Name
	dsn, err := adapters.WithCredentials(cfg)
	if err != nil {
		return err
	}

	db, err := sql.Open(s.dialect.DriverName, dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Проверяем подключение
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to acquire connection: %w", err)
	}

	statements := s.dialect.ReadWrite
	if cfg.Mode == adapters.ModeReadOnly {
		statements = s.dialect.ReadOnly
	}
	for _, stmt := range statements {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			conn.Close()
			db.Close()
			return fmt.Errorf("failed to set %s mode (%s): %w", cfg.Mode, stmt, err)
		}
	}

	s.cfg = cfg
	s.db = db
	s.conn = conn
	return nil
}

// Close откатывает незафиксированную транзакцию и закрывает соединение
func (s *Session) Close(ctx context.Context) error {
	var errs []error
	if s.tx != nil {
		if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			errs = append(errs, fmt.Errorf("failed to rollback: %w", err))
		}
		s.tx = nil
		s.stmts = nil
	}
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			errs = append(errs, err)
		}
		s.conn = nil
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			errs = append(errs, err)
		}
		s.db = nil
	}
	return errors.Join(errs...)
}

// Ping проверяет доступность БД
func (s *Session) Ping(ctx context.Context) error {
	if s.conn == nil {
		return fmt.Errorf("adapter not connected")
	}
	return s.conn.PingContext(ctx)
}

// GetDatabaseType возвращает тип СУБД
func (s *Session) GetDatabaseType() string {
	return s.dialect.Name
}

// Prepare выполняет запрос и возвращает потоковый курсор
func (s *Session) Prepare(ctx context.Context, query string) (adapters.Cursor, error) {
	if s.conn == nil {
		return nil, fmt.Errorf("adapter not connected")
	}

	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to get column types: %w", err)
	}

	typeOf := s.dialect.TypeOf
	if typeOf == nil {
		typeOf = sqltype.FromDatabaseTypeName
	}

	cols := make([]adapters.Column, len(colTypes))
	for i, ct := range colTypes {
		cols[i] = adapters.Column{
			Name:             ct.Name(),
			DatabaseTypeName: ct.DatabaseTypeName(),
			Type:             typeOf(ct.DatabaseTypeName()),
		}
	}

	fetchSize := s.cfg.FetchSize
	if fetchSize <= 0 {
		fetchSize = 1000
	}

	return &cursor{
		rows:      rows,
		cols:      cols,
		fetchSize: fetchSize,
		renderer:  row.NewRenderer(s.cfg.Formats, adapters.ColumnTypes(cols)),
		normalize: s.dialect.Normalize,
	}, nil
}

// begin открывает транзакцию, если она еще не открыта
func (s *Session) begin(ctx context.Context) error {
	if s.conn == nil {
		return fmt.Errorf("adapter not connected")
	}
	if s.tx != nil {
		return nil
	}
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	s.tx = tx
	s.stmts = make(map[string]*sql.Stmt)
	return nil
}

// ExecBatch выполняет INSERT для всех строк пакета в текущей транзакции
func (s *Session) ExecBatch(ctx context.Context, stmt string, batch row.Batch, types []sqltype.Code) (adapters.BatchResult, error) {
	if err := s.begin(ctx); err != nil {
		return adapters.BatchResult{}, err
	}

	prepared, ok := s.stmts[stmt]
	if !ok {
		var err error
		prepared, err = s.tx.PrepareContext(ctx, adapters.Rebind(s.dialect.Placeholder, stmt))
		if err != nil {
			return adapters.BatchResult{}, fmt.Errorf("failed to prepare statement: %w", err)
		}
		s.stmts[stmt] = prepared
	}

	codes := make([]int64, 0, len(batch))
	for i, r := range batch {
		args, err := BindArgs(r, types)
		if err != nil {
			return adapters.BatchResult{Codes: codes}, adapters.NewBatchError(i, codes, err)
		}

		res, err := prepared.ExecContext(ctx, args...)
		if err != nil {
			return adapters.BatchResult{Codes: codes}, adapters.NewBatchError(i, codes, err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			affected = adapters.SuccessNoInfo
		}
		codes = append(codes, affected)
	}

	return adapters.BatchResult{Codes: codes}, nil
}

// Exec выполняет оператор в текущей транзакции
func (s *Session) Exec(ctx context.Context, stmt string) error {
	if err := s.begin(ctx); err != nil {
		return err
	}
	if _, err := s.tx.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to execute statement: %w", err)
	}
	return nil
}

// Commit фиксирует текущую транзакцию. Без открытой транзакции ничего не делает
func (s *Session) Commit(ctx context.Context) error {
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	s.stmts = nil
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// BindArgs приводит значения строки к типам привязки.
// Колонки за пределами types передаются без изменений.
func BindArgs(r row.Row, types []sqltype.Code) ([]any, error) {
	args := make([]any, r.Len())
	for i := 0; i < r.Len(); i++ {
		v := r.Value(i)
		if i >= len(types) {
			args[i] = v
			continue
		}
		bound, err := sqltype.Bind(types[i], v)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i+1, err)
		}
		args[i] = bound
	}
	return args, nil
}
