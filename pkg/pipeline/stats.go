package pipeline

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync/atomic"
	"time"
)

// State - состояние исполнителя конвейера
type State int32

const (
	StateInit State = iota
	StateRunning
	StateWaiting
	StateDone
	StateFailed
	StateTerminated
)

var stateNames = [...]string{
	StateInit:       "init",
	StateRunning:    "running",
	StateWaiting:    "waiting",
	StateDone:       "done",
	StateFailed:     "failed",
	StateTerminated: "terminated",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Terminal сообщает, завершил ли исполнитель работу
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed || s == StateTerminated
}

// counters - монотонные счетчики исполнителя. Пишет только владелец
type counters struct {
	initTime atomic.Int64 // наносекунды
	dbTime   atomic.Int64
	waitTime atomic.Int64
	rows     atomic.Int64
	batches  atomic.Int64
	state    atomic.Int32
}

func (c *counters) setState(s State) { c.state.Store(int32(s)) }
func (c *counters) getState() State  { return State(c.state.Load()) }

func (c *counters) addDB(start time.Time)   { c.dbTime.Add(int64(time.Since(start))) }
func (c *counters) addWait(start time.Time) { c.waitTime.Add(int64(time.Since(start))) }

// ReaderStats - снимок счетчиков читателя
type ReaderStats struct {
	InitTime time.Duration
	DBTime   time.Duration
	WaitTime time.Duration
	Rows     int64
	Fetches  int64
	State    State
}

// WriterStats - снимок счетчиков писателя
type WriterStats struct {
	ID       int
	InitTime time.Duration
	DBTime   time.Duration
	WaitTime time.Duration
	Rows     int64
	Batches  int64
	State    State
}

// FormatMs форматирует длительность как в строке состояния:
// до 10 секунд - миллисекунды, до часа - секунды, дальше - минуты
func FormatMs(d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 10000 {
		return fmt.Sprintf("%dms", ms)
	}
	sec := ms / 1000
	if sec < 3600 {
		return fmt.Sprintf("%dsec", sec)
	}
	return fmt.Sprintf("%dm", sec/60)
}

// RowsPerSec считает скорость по целым секундам. Меньше секунды - -1
func RowsPerSec(rows int64, d time.Duration) int64 {
	sec := d.Milliseconds() / 1000
	if sec == 0 {
		return -1
	}
	return rows / sec
}

// stateHistogram собирает строку вида "done*1,running*2"
func stateHistogram(states []State) string {
	counts := make(map[string]int)
	for _, s := range states {
		counts[s.String()]++
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s*%d", name, counts[name])
	}
	return strings.Join(parts, ",")
}

// memoryMB возвращает объем памяти, полученной от ОС, в мегабайтах
func memoryMB() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.Sys / (1 << 20)
}
