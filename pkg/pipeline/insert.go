package pipeline

import (
	"strings"
)

// BuildInsertStatement возвращает оператор вставки для писателей.
// Готовый "INSERT ... (...)" используется как есть, иначе target считается
// именем таблицы и оператор собирается по именам колонок источника
func BuildInsertStatement(target string, columns []string) string {
	trimmed := strings.TrimSpace(target)
	if len(trimmed) > 7 && strings.EqualFold(trimmed[:7], "INSERT ") && strings.Index(trimmed, "(") > 0 {
		return trimmed
	}

	var sb strings.Builder
	sb.WriteString("insert into ")
	sb.WriteString(trimmed)
	sb.WriteString("(")
	sb.WriteString(strings.Join(columns, ","))
	sb.WriteString(") values (")
	for i := range columns {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("?")
	}
	sb.WriteString(")")
	return sb.String()
}
