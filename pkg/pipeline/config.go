package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/ruslano69/sqlcp/pkg/adapters"
	"github.com/ruslano69/sqlcp/pkg/core/row"
	"github.com/ruslano69/sqlcp/pkg/core/sqltype"
)

// Значения по умолчанию
const (
	DefaultBufferedRows = 50000
	DefaultBatchSize    = 5000
	DefaultThreads      = 1
	DefaultSeparator    = ";"
	DefaultPollInterval = 100 * time.Millisecond
)

// Режимы открытия файла назначения
const (
	FileModeOverwrite = "OVERWRITE"
	FileModeAppend    = "APPEND"
)

// Форматы файла назначения
const (
	FormatText = "text"
	FormatXLSX = "xlsx"
)

// SourceConfig - конфигурация источника
type SourceConfig struct {
	Type     string `yaml:"type,omitempty"`     // Тип СУБД (пусто - по DSN)
	DSN      string `yaml:"dsn"`                // Строка подключения
	User     string `yaml:"user,omitempty"`     // Пользователь
	Password string `yaml:"password,omitempty"` // Пароль
	Data     string `yaml:"data"`               // SELECT-запрос или имя таблицы

	BufferedRows   int           `yaml:"buffered_rows,omitempty"`   // Порог строк в очереди
	BatchSize      int           `yaml:"batch_size,omitempty"`      // Строк в одной выборке
	ConnectTimeout time.Duration `yaml:"connect_timeout,omitempty"` // Таймаут подключения
}

// AdapterConfig возвращает конфигурацию адаптера источника (только чтение)
func (s SourceConfig) AdapterConfig(formats row.Formats) adapters.Config {
	return adapters.Config{
		Type:      s.Type,
		DSN:       s.DSN,
		User:      s.User,
		Password:  s.Password,
		Mode:      adapters.ModeReadOnly,
		FetchSize: s.BatchSize,
		Timeout:   s.ConnectTimeout,
		Formats:   formats,
	}
}

// Validate проверяет конфигурацию источника
func (s SourceConfig) Validate() error {
	if strings.TrimSpace(s.DSN) == "" {
		return fmt.Errorf("source dsn is required")
	}
	if strings.TrimSpace(s.Data) == "" {
		return fmt.Errorf("source data (query or table name) is required")
	}
	if s.BufferedRows < 0 {
		return fmt.Errorf("buffered rows must be positive, got %d", s.BufferedRows)
	}
	if s.BatchSize < 0 {
		return fmt.Errorf("batch size must be positive, got %d", s.BatchSize)
	}
	return nil
}

func (s *SourceConfig) setDefaults() {
	if s.BufferedRows == 0 {
		s.BufferedRows = DefaultBufferedRows
	}
	if s.BatchSize == 0 {
		s.BatchSize = DefaultBatchSize
	}
}

// TargetConfig - конфигурация БД назначения
type TargetConfig struct {
	Type     string `yaml:"type,omitempty"`
	DSN      string `yaml:"dsn"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`

	// Target - имя таблицы или готовый оператор "INSERT ... (...)"
	Target string `yaml:"target"`

	// SQLBeforeImport - оператор, выполняемый один раз до старта писателей
	SQLBeforeImport string `yaml:"sql_before_import,omitempty"`

	// Threads - число писателей
	Threads int `yaml:"threads,omitempty"`

	// BindTypes - список имен SQL-типов через запятую (VARCHAR,INTEGER,...)
	BindTypes string `yaml:"bind_types,omitempty"`

	ConnectTimeout time.Duration `yaml:"connect_timeout,omitempty"`
}

// AdapterConfig возвращает конфигурацию адаптера назначения (запись)
func (t TargetConfig) AdapterConfig() adapters.Config {
	return adapters.Config{
		Type:     t.Type,
		DSN:      t.DSN,
		User:     t.User,
		Password: t.Password,
		Mode:     adapters.ModeReadWrite,
		Timeout:  t.ConnectTimeout,
	}
}

// ParsedBindTypes разбирает BindTypes
func (t TargetConfig) ParsedBindTypes() ([]sqltype.Code, error) {
	return sqltype.ParseList(t.BindTypes)
}

// Validate проверяет конфигурацию назначения
func (t TargetConfig) Validate() error {
	if strings.TrimSpace(t.DSN) == "" {
		return fmt.Errorf("destination dsn is required")
	}
	if strings.TrimSpace(t.Target) == "" {
		return fmt.Errorf("destination target (table or insert statement) is required")
	}
	if t.Threads < 0 {
		return fmt.Errorf("destination threads must be positive, got %d", t.Threads)
	}
	if _, err := t.ParsedBindTypes(); err != nil {
		return err
	}
	return nil
}

// FileConfig - конфигурация файла назначения
type FileConfig struct {
	// Name - путь к файлу; пусто - стандартный вывод
	Name string `yaml:"name,omitempty"`

	// Mode - OVERWRITE или APPEND
	Mode string `yaml:"mode,omitempty"`

	Separator  string `yaml:"separator,omitempty"`
	Header     bool   `yaml:"header,omitempty"`
	RowCounter bool   `yaml:"row_counter,omitempty"`

	// Format - text или xlsx
	Format string `yaml:"format,omitempty"`

	// Compress - уровень zstd для текстового вывода (0 - без сжатия)
	Compress int `yaml:"compress,omitempty"`

	// Checksum - считать XXH3 записанных байт
	Checksum bool `yaml:"checksum,omitempty"`

	// Sheet - имя листа для xlsx
	Sheet string `yaml:"sheet,omitempty"`

	// Formats - строковое представление значений
	Formats row.Formats `yaml:"fmt,omitempty"`
}

// Validate проверяет конфигурацию файла
func (f FileConfig) Validate() error {
	switch strings.ToUpper(f.Mode) {
	case "", FileModeOverwrite, FileModeAppend:
	default:
		return fmt.Errorf("invalid file mode %q (expected %s or %s)", f.Mode, FileModeOverwrite, FileModeAppend)
	}

	switch strings.ToLower(f.Format) {
	case "", FormatText:
	case FormatXLSX:
		if f.Name == "" {
			return fmt.Errorf("xlsx format requires a file name")
		}
		if strings.EqualFold(f.Mode, FileModeAppend) {
			return fmt.Errorf("xlsx format does not support %s mode", FileModeAppend)
		}
		if f.Compress > 0 {
			return fmt.Errorf("xlsx format does not support compression")
		}
	default:
		return fmt.Errorf("invalid file format %q (expected %s or %s)", f.Format, FormatText, FormatXLSX)
	}

	if f.Compress < 0 || f.Compress > 22 {
		return fmt.Errorf("compression level must be in 1..22, got %d", f.Compress)
	}
	return nil
}

func (f *FileConfig) setDefaults() {
	if f.Mode == "" {
		f.Mode = FileModeOverwrite
	}
	f.Mode = strings.ToUpper(f.Mode)
	if f.Separator == "" {
		f.Separator = DefaultSeparator
	}
	if f.Format == "" {
		f.Format = FormatText
	}
	f.Format = strings.ToLower(f.Format)
	if f.Formats.BoolTrue == "" && f.Formats.BoolFalse == "" {
		def := row.DefaultFormats()
		f.Formats.BoolTrue = def.BoolTrue
		f.Formats.BoolFalse = def.BoolFalse
	}
}

// RuntimeConfig - параметры наблюдения за прогоном
type RuntimeConfig struct {
	// GCInterval - период принудительного освобождения памяти (0 - выключено)
	GCInterval time.Duration `yaml:"gc_interval,omitempty"`

	// StatusInterval - период строки состояния (0 - выключено)
	StatusInterval time.Duration `yaml:"status_interval,omitempty"`

	// PrintSummary - печатать итоговую сводку
	PrintSummary bool `yaml:"summary,omitempty"`
}

// DBToDBConfig - конфигурация копирования БД -> БД
type DBToDBConfig struct {
	Source  SourceConfig  `yaml:"source"`
	Target  TargetConfig  `yaml:"target"`
	Runtime RuntimeConfig `yaml:"runtime,omitempty"`
}

// Validate проверяет конфигурацию
func (c *DBToDBConfig) Validate() error {
	if err := c.Source.Validate(); err != nil {
		return err
	}
	return c.Target.Validate()
}

// SetDefaults устанавливает значения по умолчанию
func (c *DBToDBConfig) SetDefaults() {
	c.Source.setDefaults()
	if c.Target.Threads == 0 {
		c.Target.Threads = DefaultThreads
	}
}

// DBToFileConfig - конфигурация выгрузки БД -> файл
type DBToFileConfig struct {
	Source  SourceConfig  `yaml:"source"`
	File    FileConfig    `yaml:"file"`
	Runtime RuntimeConfig `yaml:"runtime,omitempty"`
}

// Validate проверяет конфигурацию
func (c *DBToFileConfig) Validate() error {
	if err := c.Source.Validate(); err != nil {
		return err
	}
	return c.File.Validate()
}

// SetDefaults устанавливает значения по умолчанию
func (c *DBToFileConfig) SetDefaults() {
	c.Source.setDefaults()
	c.File.setDefaults()
}
