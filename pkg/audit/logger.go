package audit

import (
	"context"
	"fmt"
	"os/user"

	"github.com/rs/zerolog"

	"github.com/ruslano69/sqlcp/pkg/pipeline"
)

// Logger - журнал аудита прогонов.
// Ошибки записи не прерывают прогон: они уходят в zerolog
type Logger struct {
	appender Appender
	user     string
	log      zerolog.Logger
}

// NewLogger - создать audit logger поверх appenders
func NewLogger(log zerolog.Logger, appenders ...Appender) *Logger {
	var app Appender = NullAppender{}
	switch len(appenders) {
	case 0:
	case 1:
		app = appenders[0]
	default:
		app = NewMultiAppender(appenders...)
	}

	name := ""
	if u, err := user.Current(); err == nil {
		name = u.Username
	}

	return &Logger{appender: app, user: name, log: log}
}

// Log - записать audit entry
func (l *Logger) Log(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("entry is nil")
	}
	if entry.User == "" {
		entry.User = l.user
	}
	if err := l.appender.Append(ctx, entry); err != nil {
		l.log.Warn().Err(err).Str("operation", string(entry.Operation)).Msg("failed to write audit entry")
		return err
	}
	return nil
}

// RunStarted записывает начало прогона
func (l *Logger) RunStarted(ctx context.Context, mode, source, target, resource string) {
	l.Log(ctx, NewEntry(OperationFor(mode), StatusStarted).
		WithSource(source).
		WithTarget(target).
		WithResource(resource))
}

// RunFinished записывает итог прогона
func (l *Logger) RunFinished(ctx context.Context, sum *pipeline.Summary) {
	l.Log(ctx, FromSummary(sum))
}

// Step записывает вспомогательную операцию (загрузка, публикация)
func (l *Logger) Step(ctx context.Context, op Operation, resource string, err error) {
	l.Log(ctx, NewEntry(op, StatusSuccess).WithResource(resource).WithError(err))
}

// Close - закрыть appenders
func (l *Logger) Close() error {
	return l.appender.Close()
}
