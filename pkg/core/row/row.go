// Package row содержит модель данных конвейера копирования: строку (Row)
// и пакет строк (Batch), полученный одной выборкой из источника.
package row

// Row - упорядоченный набор значений колонок фиксированной длины.
// После создания не изменяется; владелец переходит от читателя к тому
// потребителю, который забрал пакет из очереди.
type Row struct {
	values   []any
	renderer *Renderer
}

// New создает строку. renderer может быть nil, тогда используются форматы по умолчанию.
func New(values []any, renderer *Renderer) Row {
	if renderer == nil {
		renderer = defaultRenderer
	}
	return Row{values: values, renderer: renderer}
}

var defaultRenderer = NewRenderer(DefaultFormats(), nil)

// Len возвращает количество колонок
func (r Row) Len() int {
	return len(r.values)
}

// Value возвращает значение колонки i (индексация с нуля)
func (r Row) Value(i int) any {
	return r.values[i]
}

// Values возвращает значения всех колонок
func (r Row) Values() []any {
	return r.values
}

// String возвращает строковое представление колонки i.
// ok == false для NULL.
func (r Row) String(i int) (s string, ok bool) {
	return r.renderer.Render(i, r.values[i])
}

// Batch - пакет строк одной выборки. Пустой пакет в очередь не попадает:
// окончание данных курсор сообщает пакетом nil.
type Batch []Row

// Len возвращает количество строк в пакете
func (b Batch) Len() int {
	return len(b)
}
