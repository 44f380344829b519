package mysql

import (
	_ "github.com/go-sql-driver/mysql" // MySQL driver

	"github.com/ruslano69/sqlcp/pkg/adapters"
	"github.com/ruslano69/sqlcp/pkg/adapters/base"
)

// AdapterType идентификатор MySQL адаптера
const AdapterType = "mysql"

// Compile-time check
var _ adapters.Adapter = (*Adapter)(nil)

// Adapter реализует adapters.Adapter для MySQL
type Adapter struct {
	*base.Session
}

func init() {
	// Регистрируем MySQL адаптер в фабрике
	adapters.Register(AdapterType, func() adapters.Adapter {
		return NewAdapter()
	})
}

// NewAdapter создает неподключенный адаптер MySQL
func NewAdapter() *Adapter {
	return &Adapter{Session: base.NewSession(dialect)}
}

var dialect = base.Dialect{
	Name:        AdapterType,
	DriverName:  "mysql",
	Placeholder: adapters.PlaceholderQuestion,
	ReadOnly: []string{
		"SET SESSION TRANSACTION READ ONLY",
	},
	ReadWrite: []string{
		"SET SESSION TRANSACTION READ WRITE",
	},
}
