/*
Package adapters предоставляет универсальный интерфейс доступа к СУБД для
конвейера копирования.

# Архитектура

	┌─────────────────────────────────────────┐
	│  pipeline: Reader, Writer               │
	└─────────────────┬───────────────────────┘
	                  │
	┌─────────────────▼───────────────────────┐
	│  adapters.Adapter / adapters.Cursor     │  ← pkg/adapters/adapter.go
	│    Connect(ctx, Config)                 │
	│    Prepare(ctx, query) Cursor           │
	│    ExecBatch(ctx, stmt, batch, types)   │
	│    Commit(ctx)                          │
	└─────────────────┬───────────────────────┘
	                  │
	     ┌────────────┼────────────┬───────────┐
	┌────▼─────┐ ┌────▼────┐ ┌─────▼───┐ ┌─────▼───┐
	│PostgreSQL│ │ MS SQL  │ │ MySQL   │ │ SQLite  │
	│ pgx/v5   │ │ base    │ │ base    │ │ base    │
	└──────────┘ └─────────┘ └─────────┘ └─────────┘

Каждый адаптер владеет ровно одним соединением. Читатель открывает его в
режиме ModeReadOnly, каждый писатель - в ModeReadWrite со своей транзакцией,
которая фиксируется после каждого пакета.

# Использование

Адаптеры регистрируются в фабрике при импорте пакета драйвера:

	import (
	    "github.com/ruslano69/sqlcp/pkg/adapters"
	    _ "github.com/ruslano69/sqlcp/pkg/adapters/postgres"
	)

	src, err := adapters.New(ctx, adapters.Config{
	    Type:      "postgres",
	    DSN:       "postgresql://localhost:5432/sales",
	    User:      "reader",
	    Password:  "secret",
	    Mode:      adapters.ModeReadOnly,
	    FetchSize: 5000,
	})
	if err != nil {
	    log.Fatal(err)
	}
	defer src.Close(ctx)

	cur, err := src.Prepare(ctx, "SELECT * FROM orders")
	for {
	    batch, err := cur.Next(ctx)
	    if err != nil || batch == nil {
	        break
	    }
	    ...
	}

# Плейсхолдеры

Операторы INSERT всегда пишутся с "?"; адаптер переписывает их в синтаксис
драйвера (Rebind): $1 для PostgreSQL, @p1 для MS SQL Server.

# Ошибки пакета

ExecBatch возвращает *BatchError с номером упавшей строки и кодами уже
выполненных строк; код упавшей строки - ExecuteFailed.
*/
package adapters
