package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"net/netip"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/ruslano69/sqlcp/pkg/adapters"
	"github.com/ruslano69/sqlcp/pkg/core/row"
)

// cursor - потоковый курсор поверх pgx.Rows
type cursor struct {
	rows      pgx.Rows
	cols      []adapters.Column
	fetchSize int
	renderer  *row.Renderer
	done      bool
}

func (c *cursor) Columns() []adapters.Column {
	return c.cols
}

// Next читает до fetchSize строк. Пакет nil означает конец данных
func (c *cursor) Next(ctx context.Context) (row.Batch, error) {
	if c.done {
		return nil, nil
	}

	batch := make(row.Batch, 0, c.fetchSize)
	for len(batch) < c.fetchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !c.rows.Next() {
			c.done = true
			if err := c.rows.Err(); err != nil {
				return nil, fmt.Errorf("failed to fetch rows: %w", err)
			}
			break
		}

		values, err := c.rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row values: %w", err)
		}
		for i, v := range values {
			values[i] = normalizeValue(v)
		}
		batch = append(batch, row.New(values, c.renderer))
	}

	if len(batch) == 0 {
		return nil, nil
	}
	return batch, nil
}

func (c *cursor) Close() error {
	c.rows.Close()
	return c.rows.Err()
}

// normalizeValue приводит PostgreSQL-специфичные значения pgx к типам,
// которые понимают Renderer и драйверы приемника: UUID, JSON, NUMERIC, INET
func normalizeValue(val any) any {
	switch v := val.(type) {
	case nil:
		return nil

	case [16]byte:
		// UUID
		return fmt.Sprintf("%x-%x-%x-%x-%x", v[0:4], v[4:6], v[6:8], v[8:10], v[10:16])

	case map[string]any, []any:
		// JSON/JSONB
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)

	case pgtype.Numeric:
		if !v.Valid {
			return nil
		}
		if v.NaN {
			return "NaN"
		}
		if v.InfinityModifier != pgtype.Finite {
			if v.InfinityModifier > 0 {
				return "Infinity"
			}
			return "-Infinity"
		}
		// текстовое представление без потери точности
		b, err := v.MarshalJSON()
		if err == nil {
			return string(b)
		}
		f, err := v.Float64Value()
		if err == nil && f.Valid {
			return f.Float64
		}
		return v.Int.String()

	case netip.Prefix:
		return v.String()

	case pgtype.Time:
		if !v.Valid {
			return nil
		}
		us := v.Microseconds
		return fmt.Sprintf("%02d:%02d:%02d", us/3600000000, us/60000000%60, us/1000000%60)

	case pgtype.Interval:
		if !v.Valid {
			return nil
		}
		b, err := v.Value()
		if err == nil {
			return b
		}
	}
	return val
}
