package mssql

import (
	"strings"

	mssqldb "github.com/denisenkom/go-mssqldb" // MS SQL Server driver

	"github.com/ruslano69/sqlcp/pkg/adapters"
	"github.com/ruslano69/sqlcp/pkg/adapters/base"
	"github.com/ruslano69/sqlcp/pkg/core/sqltype"
)

// AdapterType is the factory name of the adapter.
const AdapterType = "mssql"

// Compile-time check
var _ adapters.Adapter = (*Adapter)(nil)

func init() {
	// Register MS SQL Server adapter in factory
	adapters.Register(AdapterType, func() adapters.Adapter {
		return NewAdapter()
	})
}

// Adapter implements the adapters.Adapter interface for Microsoft SQL Server.
type Adapter struct {
	*base.Session
}

// NewAdapter returns an unconnected SQL Server adapter.
func NewAdapter() *Adapter {
	return &Adapter{Session: base.NewSession(dialect)}
}

var dialect = base.Dialect{
	Name:        AdapterType,
	DriverName:  "sqlserver",
	Placeholder: adapters.PlaceholderAtP,
	TypeOf:      columnType,
	Normalize:   normalizeValue,
}

// columnType maps SQL Server type names. TIMESTAMP in SQL Server is a
// rowversion, not a date/time type.
func columnType(dbTypeName string) sqltype.Code {
	switch strings.ToUpper(dbTypeName) {
	case "TIMESTAMP", "ROWVERSION":
		return sqltype.Other
	}
	return sqltype.FromDatabaseTypeName(dbTypeName)
}

// normalizeValue converts driver-specific binary values to their text form.
func normalizeValue(col adapters.Column, v any) any {
	b, ok := v.([]byte)
	if !ok {
		return v
	}

	switch strings.ToUpper(col.DatabaseTypeName) {
	case "UNIQUEIDENTIFIER":
		var u mssqldb.UniqueIdentifier
		if err := u.Scan(b); err == nil {
			return u.String()
		}
	case "TIMESTAMP", "ROWVERSION":
		return rowversionHex(b)
	}
	return v
}
