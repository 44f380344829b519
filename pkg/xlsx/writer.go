package xlsx

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ruslano69/sqlcp/pkg/adapters"
	"github.com/ruslano69/sqlcp/pkg/core/row"
	"github.com/ruslano69/sqlcp/pkg/core/sqltype"
)

// DefaultSheet - имя листа по умолчанию
const DefaultSheet = "Sheet1"

// Options - параметры записи XLSX
type Options struct {
	Sheet      string // Имя листа (по умолчанию Sheet1)
	RowCounter bool   // Первая колонка - номер строки
}

// Writer - потоковая запись строк в XLSX файл через excelize.StreamWriter
//
// Заголовок выделяется стилем, числа и даты записываются типизированными
// ячейками, остальные значения - строками в представлении курсора.
//
// Example:
//
//	w, err := xlsx.NewWriter("orders.xlsx", xlsx.Options{Sheet: "Orders"})
//	w.WriteHeader(cols)
//	w.WriteRow(1, r)
//	err = w.Close()
type Writer struct {
	path    string
	opts    Options
	file    *excelize.File
	stream  *excelize.StreamWriter
	types   []sqltype.Code
	styles  map[sqltype.Code]int
	header  int
	nextRow int
}

// NewWriter создает книгу с одним листом. Файл записывается при Close
func NewWriter(path string, opts Options) (*Writer, error) {
	if opts.Sheet == "" {
		opts.Sheet = DefaultSheet
	}

	f := excelize.NewFile()
	if opts.Sheet != DefaultSheet {
		index, err := f.NewSheet(opts.Sheet)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create sheet: %w", err)
		}
		f.SetActiveSheet(index)
		f.DeleteSheet(DefaultSheet)
	}

	sw, err := f.NewStreamWriter(opts.Sheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create stream writer: %w", err)
	}

	w := &Writer{
		path:    path,
		opts:    opts,
		file:    f,
		stream:  sw,
		styles:  make(map[sqltype.Code]int),
		nextRow: 1,
	}

	// Create header style
	w.header, _ = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// Встроенные числовые форматы Excel
	for code, numFmt := range map[sqltype.Code]int{
		sqltype.Date:                  14,
		sqltype.Timestamp:             22,
		sqltype.TimestampWithTimezone: 22,
		sqltype.Time:                  21,
	} {
		style, err := f.NewStyle(&excelize.Style{NumFmt: numFmt})
		if err == nil {
			w.styles[code] = style
		}
	}

	return w, nil
}

// SetColumns задает типы колонок для выбора формата ячеек
func (w *Writer) SetColumns(columns []adapters.Column) {
	w.types = adapters.ColumnTypes(columns)
}

// WriteHeader пишет строку заголовка с именами колонок
func (w *Writer) WriteHeader(columns []adapters.Column) error {
	w.SetColumns(columns)

	cells := make([]any, 0, len(columns)+1)
	if w.opts.RowCounter {
		cells = append(cells, excelize.Cell{StyleID: w.header, Value: "#"})
	}
	for _, c := range columns {
		cells = append(cells, excelize.Cell{StyleID: w.header, Value: c.Name})
	}
	return w.setRow(cells)
}

// WriteRow пишет строку данных. counter используется при Options.RowCounter
func (w *Writer) WriteRow(counter int64, r row.Row) error {
	cells := make([]any, 0, r.Len()+1)
	if w.opts.RowCounter {
		cells = append(cells, counter)
	}
	for i := 0; i < r.Len(); i++ {
		cells = append(cells, w.cell(i, r))
	}
	return w.setRow(cells)
}

func (w *Writer) cell(i int, r row.Row) any {
	v := r.Value(i)
	if v == nil {
		return nil
	}

	code := sqltype.Other
	if i < len(w.types) {
		code = w.types[i]
	}

	switch val := v.(type) {
	case int64, int32, int, float64, float32, bool:
		return val
	case time.Time:
		if style, ok := w.styles[code]; ok {
			return excelize.Cell{StyleID: style, Value: val}
		}
		return val
	}

	s, _ := r.String(i)
	return s
}

func (w *Writer) setRow(cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, w.nextRow)
	if err != nil {
		return err
	}
	if err := w.stream.SetRow(cell, cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", w.nextRow, err)
	}
	w.nextRow++
	return nil
}

// Rows возвращает число записанных строк листа, включая заголовок
func (w *Writer) Rows() int {
	return w.nextRow - 1
}

// Close сбрасывает поток и сохраняет книгу
func (w *Writer) Close() error {
	defer w.file.Close()

	if err := w.stream.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	if err := w.file.SaveAs(w.path); err != nil {
		return fmt.Errorf("failed to save %s: %w", w.path, err)
	}
	return nil
}

// ReadRows читает все строки листа как строки.
// Пустое имя листа означает первый лист книги
func ReadRows(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	// Get sheet name
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return rows, nil
}
