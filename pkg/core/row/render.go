package row

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"time"

	"github.com/ruslano69/sqlcp/pkg/core/sqltype"
)

// Formats - параметры строкового представления значений.
// Пустой формат даты/времени означает формат по умолчанию.
type Formats struct {
	Null      string `yaml:"null"`
	BoolTrue  string `yaml:"bool_true"`
	BoolFalse string `yaml:"bool_false"`
	Date      string `yaml:"date"`      // Go layout, по умолчанию 2006-01-02
	Time      string `yaml:"time"`      // Go layout, по умолчанию 15:04:05
	Timestamp string `yaml:"timestamp"` // Go layout, по умолчанию 2006-01-02 15:04:05
	Float     string `yaml:"float"`     // fmt-глагол, например %.2f
}

// DefaultFormats возвращает форматы по умолчанию
func DefaultFormats() Formats {
	return Formats{
		Null:      "",
		BoolTrue:  "TRUE",
		BoolFalse: "FALSE",
	}
}

const (
	defaultDateLayout      = "2006-01-02"
	defaultTimeLayout      = "15:04:05"
	defaultTimestampLayout = "2006-01-02 15:04:05"
)

// Renderer конвертирует значения колонок в строки.
// Один Renderer разделяется всеми строками одного курсора.
type Renderer struct {
	formats Formats
	types   []sqltype.Code
}

// NewRenderer создает Renderer для курсора с указанными типами колонок
func NewRenderer(formats Formats, types []sqltype.Code) *Renderer {
	if formats.BoolTrue == "" && formats.BoolFalse == "" {
		formats.BoolTrue = "TRUE"
		formats.BoolFalse = "FALSE"
	}
	return &Renderer{formats: formats, types: types}
}

// Formats возвращает действующие форматы
func (r *Renderer) Formats() Formats {
	return r.formats
}

// Render возвращает строковое представление значения колонки i.
// Второй результат false означает NULL; в этом случае строка равна Formats.Null.
func (r *Renderer) Render(i int, v any) (string, bool) {
	if v == nil {
		return r.formats.Null, false
	}

	code := sqltype.Other
	if i >= 0 && i < len(r.types) {
		code = r.types[i]
	}

	switch val := v.(type) {
	case string:
		return val, true

	case []byte:
		return string(val), true

	case bool:
		if val {
			return r.formats.BoolTrue, true
		}
		return r.formats.BoolFalse, true

	case int64:
		return strconv.FormatInt(val, 10), true
	case int32:
		return strconv.FormatInt(int64(val), 10), true
	case int:
		return strconv.Itoa(val), true
	case int16, int8, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val), true

	case float64:
		return r.float(val), true
	case float32:
		return r.float(float64(val)), true

	case time.Time:
		return r.time(code, val), true

	case driver.Valuer:
		dv, err := val.Value()
		if err != nil || dv == nil {
			return r.formats.Null, false
		}
		return r.Render(i, dv)

	case fmt.Stringer:
		return val.String(), true
	}

	return fmt.Sprintf("%v", v), true
}

func (r *Renderer) float(f float64) string {
	if r.formats.Float != "" {
		return fmt.Sprintf(r.formats.Float, f)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func (r *Renderer) time(code sqltype.Code, t time.Time) string {
	switch code {
	case sqltype.Date:
		return t.Format(layoutOr(r.formats.Date, defaultDateLayout))
	case sqltype.Time, sqltype.TimeWithTimezone:
		return t.Format(layoutOr(r.formats.Time, defaultTimeLayout))
	case sqltype.TimestampWithTimezone:
		return t.Format(layoutOr(r.formats.Timestamp, defaultTimestampLayout+"Z07:00"))
	}
	return t.Format(layoutOr(r.formats.Timestamp, defaultTimestampLayout))
}

func layoutOr(layout, def string) string {
	if layout == "" {
		return def
	}
	return layout
}
