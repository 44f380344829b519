package sqltype

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// timeLayouts - форматы, которые пробуются при привязке строки к временному типу
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
	"15:04:05.999999999",
}

// Bind приводит значение источника к Go-типу, ожидаемому драйвером приемника
// для указанного кода. NULL (nil) передается как есть. Для кодов, которые
// не требуют приведения, значение возвращается без изменений.
func Bind(code Code, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if valuer, ok := v.(driver.Valuer); ok {
		dv, err := valuer.Value()
		if err != nil {
			return nil, fmt.Errorf("failed to read driver value: %w", err)
		}
		if dv == nil {
			return nil, nil
		}
		v = dv
	}

	switch code {
	case Null:
		return nil, nil

	case TinyInt, SmallInt, Integer, BigInt:
		return bindInt(v)

	case Float, Real, Double:
		return bindFloat(v)

	case Boolean, Bit:
		return bindBool(v)

	case Char, VarChar, LongVarChar, NChar, NVarChar, LongNVarChar, Clob, NClob, SQLXML, Numeric, Decimal:
		return bindString(v), nil

	case Date, Time, Timestamp, TimeWithTimezone, TimestampWithTimezone:
		return bindTime(v), nil

	case Binary, VarBinary, LongVarBinary, Blob:
		switch b := v.(type) {
		case []byte:
			return b, nil
		case string:
			return []byte(b), nil
		}
		return v, nil
	}

	if b, ok := v.([]byte); ok {
		return string(b), nil
	}
	return v, nil
}

func bindInt(v any) (any, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case float32:
		return int64(n), nil
	case bool:
		if n {
			return int64(1), nil
		}
		return int64(0), nil
	case []byte:
		return parseInt(string(n))
	case string:
		return parseInt(n)
	}
	return v, nil
}

func parseInt(s string) (any, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to bind %q as integer: %w", s, err)
	}
	return n, nil
}

func bindFloat(v any) (any, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case []byte:
		return parseFloat(string(n))
	case string:
		return parseFloat(n)
	}
	return v, nil
}

func parseFloat(s string) (any, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, fmt.Errorf("failed to bind %q as float: %w", s, err)
	}
	return f, nil
}

func bindBool(v any) (any, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case int64:
		return b != 0, nil
	case int:
		return b != 0, nil
	case []byte:
		return parseBool(string(b))
	case string:
		return parseBool(b)
	}
	return v, nil
}

func parseBool(s string) (any, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "1", "T", "TRUE", "Y", "YES":
		return true, nil
	case "0", "F", "FALSE", "N", "NO":
		return false, nil
	}
	return nil, fmt.Errorf("failed to bind %q as boolean", s)
}

func bindString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case time.Time:
		return s.Format("2006-01-02 15:04:05.999999999")
	case fmt.Stringer:
		return s.String()
	}
	return fmt.Sprint(v)
}

// bindTime пробует разобрать строку как дату/время; при неудаче строка
// передается драйверу как есть, пусть он решает сам
func bindTime(v any) any {
	var s string
	switch t := v.(type) {
	case time.Time:
		return t
	case []byte:
		s = string(t)
	case string:
		s = t
	default:
		return v
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed
		}
	}
	return s
}
