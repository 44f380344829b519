package sqlite

import (
	"github.com/ruslano69/sqlcp/pkg/adapters"
	"github.com/ruslano69/sqlcp/pkg/adapters/base"
	_ "modernc.org/sqlite"
)

const driverSqlite = "sqlite"

// Compile-time check: Adapter должен реализовывать интерфейс adapters.Adapter
var _ adapters.Adapter = (*Adapter)(nil)

// Регистрация адаптера в глобальной фабрике
func init() {
	adapters.Register("sqlite", func() adapters.Adapter {
		return NewAdapter()
	})
}

// Adapter представляет адаптер для работы с SQLite
// Реализует интерфейс adapters.Adapter
type Adapter struct {
	*base.Session
}

// NewAdapter создает неподключенный адаптер SQLite
func NewAdapter() *Adapter {
	return &Adapter{Session: base.NewSession(dialect)}
}

var dialect = base.Dialect{
	Name:        "sqlite",
	DriverName:  driverSqlite,
	Placeholder: adapters.PlaceholderQuestion,

	ReadOnly: []string{
		"PRAGMA busy_timeout = 30000",
		"PRAGMA query_only = ON",
	},

	// PRAGMA для массовой записи
	ReadWrite: []string{
		// Ожидание блокировки, пока пишет другой писатель
		"PRAGMA busy_timeout = 30000",

		// WAL: читатели не блокируют писателя
		"PRAGMA journal_mode = WAL",

		// fsync только на контрольных точках, безопасно при WAL
		"PRAGMA synchronous = NORMAL",

		// 64 MB кеша страниц
		"PRAGMA cache_size = -64000",

		"PRAGMA temp_store = MEMORY",
	},
}
