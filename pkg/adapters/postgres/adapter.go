package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ruslano69/sqlcp/pkg/adapters"
	"github.com/ruslano69/sqlcp/pkg/adapters/base"
	"github.com/ruslano69/sqlcp/pkg/core/row"
	"github.com/ruslano69/sqlcp/pkg/core/sqltype"
)

// Compile-time check: Adapter должен реализовывать интерфейс adapters.Adapter
var _ adapters.Adapter = (*Adapter)(nil)

// Регистрация адаптера в глобальной фабрике
func init() {
	adapters.Register("postgres", func() adapters.Adapter {
		return &Adapter{}
	})
}

// Adapter представляет адаптер для работы с PostgreSQL
// Пул ограничен одним соединением, которое захватывается на все время работы
type Adapter struct {
	pool *pgxpool.Pool
	conn *pgxpool.Conn
	tx   pgx.Tx
	cfg  adapters.Config
}

// Connect устанавливает подключение к PostgreSQL
// Реализует интерфейс adapters.Adapter
func (a *Adapter) Connect(ctx context.Context, cfg adapters.Config) error {
	cfg.Type = "postgres"
	dsn, err := adapters.WithCredentials(cfg)
	if err != nil {
		return err
	}

	// Парсим connection string
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("failed to parse connection string: %w", err)
	}

	config.MaxConns = 1
	config.MinConns = 0

	// Режим только для чтения задается на уровне сессии
	if cfg.Mode == adapters.ModeReadOnly {
		config.ConnConfig.RuntimeParams["default_transaction_read_only"] = "on"
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		pool.Close()
		return fmt.Errorf("failed to acquire connection: %w", err)
	}

	// Проверяем подключение
	if err := conn.Ping(ctx); err != nil {
		conn.Release()
		pool.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	a.pool = pool
	a.conn = conn
	a.cfg = cfg
	return nil
}

// Close откатывает незафиксированную транзакцию и закрывает пул
// Реализует интерфейс adapters.Adapter
func (a *Adapter) Close(ctx context.Context) error {
	var err error
	if a.tx != nil {
		if rbErr := a.tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			err = fmt.Errorf("failed to rollback: %w", rbErr)
		}
		a.tx = nil
	}
	if a.conn != nil {
		a.conn.Release()
		a.conn = nil
	}
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
	return err
}

// Ping проверяет доступность БД
// Реализует интерфейс adapters.Adapter
func (a *Adapter) Ping(ctx context.Context) error {
	if a.conn == nil {
		return fmt.Errorf("adapter not connected")
	}
	return a.conn.Ping(ctx)
}

// GetDatabaseType возвращает тип СУБД
func (a *Adapter) GetDatabaseType() string {
	return "postgres"
}

// Prepare выполняет запрос; pgx читает результат потоково
func (a *Adapter) Prepare(ctx context.Context, query string) (adapters.Cursor, error) {
	if a.conn == nil {
		return nil, fmt.Errorf("adapter not connected")
	}

	rows, err := a.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}

	typeMap := a.conn.Conn().TypeMap()
	fields := rows.FieldDescriptions()
	cols := make([]adapters.Column, len(fields))
	for i, fd := range fields {
		typeName := ""
		if t, ok := typeMap.TypeForOID(fd.DataTypeOID); ok {
			typeName = t.Name
		}
		cols[i] = adapters.Column{
			Name:             fd.Name,
			DatabaseTypeName: typeName,
			Type:             sqltype.FromDatabaseTypeName(typeName),
		}
	}

	// Ошибка выполнения запроса может проявиться только при первом чтении
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}

	fetchSize := a.cfg.FetchSize
	if fetchSize <= 0 {
		fetchSize = 1000
	}

	return &cursor{
		rows:      rows,
		cols:      cols,
		fetchSize: fetchSize,
		renderer:  row.NewRenderer(a.cfg.Formats, adapters.ColumnTypes(cols)),
	}, nil
}

func (a *Adapter) begin(ctx context.Context) error {
	if a.conn == nil {
		return fmt.Errorf("adapter not connected")
	}
	if a.tx != nil {
		return nil
	}
	tx, err := a.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	a.tx = tx
	return nil
}

// ExecBatch отправляет все строки пакета одним pgx.Batch
func (a *Adapter) ExecBatch(ctx context.Context, stmt string, batch row.Batch, types []sqltype.Code) (adapters.BatchResult, error) {
	if err := a.begin(ctx); err != nil {
		return adapters.BatchResult{}, err
	}

	query := adapters.Rebind(adapters.PlaceholderDollar, stmt)
	b := &pgx.Batch{}
	for i, r := range batch {
		args, err := base.BindArgs(r, types)
		if err != nil {
			return adapters.BatchResult{}, adapters.NewBatchError(i, nil, err)
		}
		b.Queue(query, args...)
	}

	br := a.tx.SendBatch(ctx, b)
	codes := make([]int64, 0, len(batch))
	for i := range batch {
		ct, err := br.Exec()
		if err != nil {
			br.Close()
			return adapters.BatchResult{Codes: codes}, adapters.NewBatchError(i, codes, err)
		}
		codes = append(codes, ct.RowsAffected())
	}
	if err := br.Close(); err != nil {
		return adapters.BatchResult{Codes: codes}, fmt.Errorf("failed to close batch: %w", err)
	}

	return adapters.BatchResult{Codes: codes}, nil
}

// Exec выполняет оператор в текущей транзакции
func (a *Adapter) Exec(ctx context.Context, stmt string) error {
	if err := a.begin(ctx); err != nil {
		return err
	}
	if _, err := a.tx.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("failed to execute statement: %w", err)
	}
	return nil
}

// Commit фиксирует текущую транзакцию
func (a *Adapter) Commit(ctx context.Context) error {
	if a.tx == nil {
		return nil
	}
	tx := a.tx
	a.tx = nil
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}
