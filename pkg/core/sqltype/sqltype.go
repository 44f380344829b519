// Package sqltype описывает коды SQL-типов, которые передаются от источника
// к приемнику без преобразования схемы.
//
// Числовые значения кодов совпадают с java.sql.Types, чтобы списки
// привязки (bind types) из существующих job-файлов оставались совместимыми.
package sqltype

import (
	"fmt"
	"sort"
	"strings"
)

// Code - код SQL-типа колонки
type Code int

const (
	Bit                   Code = -7
	TinyInt               Code = -6
	SmallInt              Code = 5
	Integer               Code = 4
	BigInt                Code = -5
	Float                 Code = 6
	Real                  Code = 7
	Double                Code = 8
	Numeric               Code = 2
	Decimal               Code = 3
	Char                  Code = 1
	VarChar               Code = 12
	LongVarChar           Code = -1
	Date                  Code = 91
	Time                  Code = 92
	Timestamp             Code = 93
	Binary                Code = -2
	VarBinary             Code = -3
	LongVarBinary         Code = -4
	Null                  Code = 0
	Other                 Code = 1111
	JavaObject            Code = 2000
	Distinct              Code = 2001
	Struct                Code = 2002
	Array                 Code = 2003
	Blob                  Code = 2004
	Clob                  Code = 2005
	Ref                   Code = 2006
	DataLink              Code = 70
	Boolean               Code = 16
	RowID                 Code = -8
	NChar                 Code = -15
	NVarChar              Code = -9
	LongNVarChar          Code = -16
	NClob                 Code = 2011
	SQLXML                Code = 2009
	RefCursor             Code = 2012
	TimeWithTimezone      Code = 2013
	TimestampWithTimezone Code = 2014
)

var names = map[string]Code{
	"ARRAY":                   Array,
	"BIGINT":                  BigInt,
	"BINARY":                  Binary,
	"BIT":                     Bit,
	"BLOB":                    Blob,
	"BOOLEAN":                 Boolean,
	"CHAR":                    Char,
	"CLOB":                    Clob,
	"DATALINK":                DataLink,
	"DATE":                    Date,
	"DECIMAL":                 Decimal,
	"DISTINCT":                Distinct,
	"DOUBLE":                  Double,
	"FLOAT":                   Float,
	"INTEGER":                 Integer,
	"JAVA_OBJECT":             JavaObject,
	"LONGNVARCHAR":            LongNVarChar,
	"LONGVARBINARY":           LongVarBinary,
	"LONGVARCHAR":             LongVarChar,
	"NCHAR":                   NChar,
	"NCLOB":                   NClob,
	"NULL":                    Null,
	"NUMERIC":                 Numeric,
	"NVARCHAR":                NVarChar,
	"OTHER":                   Other,
	"REAL":                    Real,
	"REF":                     Ref,
	"REF_CURSOR":              RefCursor,
	"ROWID":                   RowID,
	"SMALLINT":                SmallInt,
	"SQLXML":                  SQLXML,
	"STRUCT":                  Struct,
	"TIME":                    Time,
	"TIME_WITH_TIMEZONE":      TimeWithTimezone,
	"TIMESTAMP":               Timestamp,
	"TIMESTAMP_WITH_TIMEZONE": TimestampWithTimezone,
	"TINYINT":                 TinyInt,
	"VARBINARY":               VarBinary,
	"VARCHAR":                 VarChar,
}

// String возвращает каноническое имя типа (VARCHAR, INTEGER, ...)
func (c Code) String() string {
	for name, code := range names {
		if code == c {
			return name
		}
	}
	return fmt.Sprintf("TYPE(%d)", int(c))
}

// Parse разбирает имя типа без учета регистра
func Parse(name string) (Code, error) {
	code, ok := names[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown SQL type name: %q (known: %s)", name, strings.Join(Names(), ","))
	}
	return code, nil
}

// ParseList разбирает список типов через запятую: "VARCHAR,INTEGER,DATE".
// Пустая строка означает отсутствие переопределения (nil, nil).
func ParseList(list string) ([]Code, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}

	parts := strings.Split(list, ",")
	codes := make([]Code, 0, len(parts))
	for i, p := range parts {
		code, err := Parse(p)
		if err != nil {
			return nil, fmt.Errorf("bind type #%d: %w", i+1, err)
		}
		codes = append(codes, code)
	}
	return codes, nil
}

// Names возвращает отсортированный список известных имен типов
func Names() []string {
	out := make([]string, 0, len(names))
	for name := range names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// FromDatabaseTypeName отображает имя типа драйвера (sql.ColumnType.DatabaseTypeName,
// имя OID в pgx) в код. Неизвестные имена отображаются в Other.
func FromDatabaseTypeName(dbType string) Code {
	t := strings.ToUpper(strings.TrimSpace(dbType))
	if i := strings.IndexByte(t, '('); i > 0 {
		t = strings.TrimSpace(t[:i])
	}

	switch t {
	case "BIT":
		return Bit
	case "TINYINT", "UNSIGNED TINYINT":
		return TinyInt
	case "SMALLINT", "INT2", "SMALLSERIAL", "UNSIGNED SMALLINT", "YEAR":
		return SmallInt
	case "INT", "INTEGER", "INT4", "MEDIUMINT", "SERIAL", "UNSIGNED INT", "UNSIGNED MEDIUMINT":
		return Integer
	case "BIGINT", "INT8", "BIGSERIAL", "UNSIGNED BIGINT":
		return BigInt
	case "REAL", "FLOAT4":
		return Real
	case "FLOAT":
		return Float
	case "DOUBLE", "DOUBLE PRECISION", "FLOAT8":
		return Double
	case "NUMERIC", "MONEY", "SMALLMONEY":
		return Numeric
	case "DECIMAL":
		return Decimal
	case "CHAR", "BPCHAR", "CHARACTER":
		return Char
	case "NCHAR":
		return NChar
	case "VARCHAR", "CHARACTER VARYING", "TEXT", "NAME", "CITEXT", "STRING", "UUID", "UNIQUEIDENTIFIER", "JSON", "JSONB":
		return VarChar
	case "NVARCHAR", "SYSNAME":
		return NVarChar
	case "NTEXT":
		return LongNVarChar
	case "TINYTEXT", "MEDIUMTEXT", "LONGTEXT":
		return LongVarChar
	case "DATE":
		return Date
	case "TIME":
		return Time
	case "TIMETZ":
		return TimeWithTimezone
	case "TIMESTAMP", "DATETIME", "DATETIME2", "SMALLDATETIME":
		return Timestamp
	case "TIMESTAMPTZ", "DATETIMEOFFSET":
		return TimestampWithTimezone
	case "BOOL", "BOOLEAN":
		return Boolean
	case "BINARY":
		return Binary
	case "VARBINARY", "BYTEA", "ROWVERSION":
		return VarBinary
	case "BLOB", "TINYBLOB", "MEDIUMBLOB", "LONGBLOB", "IMAGE":
		return Blob
	case "CLOB":
		return Clob
	case "XML":
		return SQLXML
	}
	return Other
}
