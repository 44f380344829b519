package resultlog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ruslano69/sqlcp/pkg/pipeline"
)

// RunResult представляет итог прогона копирования, публикуемый в Redis
// после завершения (успешного или с ошибкой).
//
// Redis-ключи:
//
//	SET  sqlcp:run:<name>:state  <JSON>  EX <ttl>  - для GET-запросов оркестратора
//	PUB  sqlcp:run:<name>                          - для event-driven маршрутизации
type RunResult struct {
	Name        string    `json:"name"`
	Mode        string    `json:"mode"`
	Status      string    `json:"status"` // "success" | "failed"
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	DurationMs  int64     `json:"duration_ms"`
	RowsRead    int64     `json:"rows_read"`
	RowsWritten int64     `json:"rows_written"`
	Bytes       int64     `json:"bytes,omitempty"`
	Checksum    string    `json:"checksum,omitempty"`
	Threads     int       `json:"threads,omitempty"`
	Error       *string   `json:"error,omitempty"`
}

// Config - параметры публикации результата
type Config struct {
	Address  string        `yaml:"address"`
	Password string        `yaml:"password,omitempty"`
	DB       int           `yaml:"db,omitempty"`
	Name     string        `yaml:"name"`
	TTL      time.Duration `yaml:"ttl,omitempty"`
}

// Validate проверяет конфигурацию
func (c Config) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("result log: address is required")
	}
	if c.Name == "" {
		return fmt.Errorf("result log: name is required")
	}
	return nil
}

// StateKey возвращает ключ состояния
func StateKey(name string) string {
	return fmt.Sprintf("sqlcp:run:%s:state", name)
}

// Channel возвращает канал событий
func Channel(name string) string {
	return fmt.Sprintf("sqlcp:run:%s", name)
}

// NewRunResult строит результат по сводке прогона
func NewRunResult(name string, sum *pipeline.Summary) RunResult {
	result := RunResult{
		Name:        name,
		Mode:        sum.Mode,
		StartedAt:   sum.Started,
		FinishedAt:  sum.Finished,
		DurationMs:  sum.ExecTime.Milliseconds(),
		RowsRead:    sum.RowsRead(),
		RowsWritten: sum.RowsWritten(),
		Bytes:       sum.BytesWritten(),
		Threads:     len(sum.Writers),
		Status:      "success",
	}
	if sum.Sink != nil {
		result.Checksum = sum.Sink.Checksum
	}
	if sum.Err != nil {
		result.Status = "failed"
		errStr := sum.Err.Error()
		result.Error = &errStr
	}
	return result
}

// RedisPublisher публикует результат прогона в Redis
type RedisPublisher struct {
	client *redis.Client
	config Config
}

// NewRedisPublisher создает новый Redis publisher на основе конфигурации
func NewRedisPublisher(config Config) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.DB,
	})
	return &RedisPublisher{client: client, config: config}
}

// Publish публикует результат прогона:
//   - SET sqlcp:run:<name>:state <JSON> EX <ttl>  → для опроса (polling)
//   - PUBLISH sqlcp:run:<name> <JSON>              → для подписки (pub/sub)
//
// Вызывается независимо от результата выполнения (success или failed).
func (p *RedisPublisher) Publish(ctx context.Context, sum *pipeline.Summary) error {
	payload, err := json.Marshal(NewRunResult(p.config.Name, sum))
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	// SET ключ с TTL (0 - без срока)
	if err := p.client.Set(ctx, StateKey(p.config.Name), payload, p.config.TTL).Err(); err != nil {
		return fmt.Errorf("redis SET failed: %w", err)
	}

	if err := p.client.Publish(ctx, Channel(p.config.Name), payload).Err(); err != nil {
		return fmt.Errorf("redis PUBLISH failed: %w", err)
	}

	return nil
}

// Name возвращает имя прогона
func (p *RedisPublisher) Name() string {
	return p.config.Name
}

// Close закрывает соединение с Redis
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
