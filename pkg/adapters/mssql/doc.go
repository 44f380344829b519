// Package mssql provides a Microsoft SQL Server adapter for sqlcp.
//
// The adapter runs on github.com/denisenkom/go-mssqldb through the shared
// database/sql session in pkg/adapters/base.
//
// Features:
//   - "?" placeholders rewritten to @p1..@pN for the sqlserver driver
//   - UNIQUEIDENTIFIER values rendered in canonical text form
//   - TIMESTAMP/ROWVERSION values rendered as hex without leading zeros
//   - credentials from Config.User/Config.Password merged into the URL
//
// Usage:
//
//	import (
//	    "context"
//	    "github.com/ruslano69/sqlcp/pkg/adapters"
//	    _ "github.com/ruslano69/sqlcp/pkg/adapters/mssql"
//	)
//
//	adapter, err := adapters.New(ctx, adapters.Config{
//	    Type:     "mssql",
//	    DSN:      "sqlserver://localhost:1433?database=sales",
//	    User:     "loader",
//	    Password: "secret",
//	    Mode:     adapters.ModeReadWrite,
//	})
package mssql
