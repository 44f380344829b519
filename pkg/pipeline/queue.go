package pipeline

import (
	"context"
	"sync"

	"github.com/ruslano69/sqlcp/pkg/core/row"
)

// BatchQueue - FIFO-очередь пакетов между читателем и потребителями.
//
// Сигналом обратного давления служит суммарное число строк в очереди,
// а не число пакетов. Любое изменение (Push/TryPop) закрывает канал
// Changed и заменяет его новым, так что ожидающие просыпаются без опроса.
type BatchQueue struct {
	mu      sync.Mutex
	batches []row.Batch
	rows    int
	maxRows int
	changed chan struct{}
}

// NewBatchQueue создает пустую очередь
func NewBatchQueue() *BatchQueue {
	return &BatchQueue{changed: make(chan struct{})}
}

// Push добавляет пакет в конец очереди. Пустые пакеты игнорируются
func (q *BatchQueue) Push(b row.Batch) {
	if len(b) == 0 {
		return
	}
	q.mu.Lock()
	q.batches = append(q.batches, b)
	q.rows += len(b)
	if q.rows > q.maxRows {
		q.maxRows = q.rows
	}
	q.notifyLocked()
	q.mu.Unlock()
}

// TryPop извлекает пакет из головы очереди без ожидания
func (q *BatchQueue) TryPop() (row.Batch, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.batches) == 0 {
		return nil, false
	}
	b := q.batches[0]
	q.batches[0] = nil
	q.batches = q.batches[1:]
	q.rows -= len(b)
	q.notifyLocked()
	return b, true
}

func (q *BatchQueue) notifyLocked() {
	close(q.changed)
	q.changed = make(chan struct{})
}

// Changed возвращает канал, который закроется при следующем изменении очереди.
// Канал нужно получать до проверки состояния, иначе изменение можно пропустить
func (q *BatchQueue) Changed() <-chan struct{} {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.changed
}

// Rows возвращает суммарное число строк в очереди
func (q *BatchQueue) Rows() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.rows
}

// Len возвращает число пакетов в очереди
func (q *BatchQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.batches)
}

// MaxRows возвращает наибольшее число строк, наблюдавшееся в очереди
func (q *BatchQueue) MaxRows() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.maxRows
}

// WaitBelow ждет, пока в очереди станет меньше limit строк.
// Возвращает false, если ожидание прервано через stop или ctx.
// WaitBelow(ctx, 1, stop) ждет полного опустошения очереди.
func (q *BatchQueue) WaitBelow(ctx context.Context, limit int, stop <-chan struct{}) bool {
	for {
		q.mu.Lock()
		rows, changed := q.rows, q.changed
		q.mu.Unlock()

		if rows < limit {
			return true
		}

		select {
		case <-changed:
		case <-stop:
			return false
		case <-ctx.Done():
			return false
		}
	}
}
