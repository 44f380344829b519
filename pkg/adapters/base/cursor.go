package base

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ruslano69/sqlcp/pkg/adapters"
	"github.com/ruslano69/sqlcp/pkg/core/row"
)

// cursor - потоковый курсор поверх *sql.Rows
type cursor struct {
	rows      *sql.Rows
	cols      []adapters.Column
	fetchSize int
	renderer  *row.Renderer
	normalize func(col adapters.Column, v any) any
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

		values := make([]any, len(c.cols))
		ptrs := make([]any, len(c.cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := c.rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if c.normalize != nil {
			for i, v := range values {
				if v != nil {
					values[i] = c.normalize(c.cols[i], v)
				}
			}
		}

		batch = append(batch, row.New(values, c.renderer))
	}

	if len(batch) == 0 {
		return nil, nil
	}
	return batch, nil
}

func (c *cursor) Close() error {
	return c.rows.Close()
}
