package adapters

import (
	"strconv"
	"strings"
)

// PlaceholderStyle - синтаксис параметров запроса в драйвере
type PlaceholderStyle int

const (
	// PlaceholderQuestion - "?" (SQLite, MySQL)
	PlaceholderQuestion PlaceholderStyle = iota

	// PlaceholderDollar - "$1, $2" (PostgreSQL)
	PlaceholderDollar

	// PlaceholderAtP - "@p1, @p2" (MS SQL Server)
	PlaceholderAtP
)

// Rebind переписывает плейсхолдеры "?" в синтаксис драйвера.
// Знаки вопроса внутри строковых литералов и идентификаторов в кавычках
// не затрагиваются.
func Rebind(style PlaceholderStyle, query string) string {
	if style == PlaceholderQuestion || !strings.Contains(query, "?") {
		return query
	}

	var sb strings.Builder
	sb.Grow(len(query) + 16)

	n := 0
	var quote byte
	for i := 0; i < len(query); i++ {
		c := query[i]

		if quote != 0 {
			sb.WriteByte(c)
			if c == quote {
				quote = 0
			}
			continue
		}

		switch c {
		case '\'', '"', '`':
			quote = c
			sb.WriteByte(c)
		case '[':
			quote = ']'
			sb.WriteByte(c)
		case '?':
			n++
			if style == PlaceholderDollar {
				sb.WriteByte('$')
			} else {
				sb.WriteString("@p")
			}
			sb.WriteString(strconv.Itoa(n))
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
