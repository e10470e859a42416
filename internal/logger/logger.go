package logger

import (
	"fmt"
	"io"
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"swimlms/internal/backend"
)

// Options: параметры отправки в Rollbar. Пустой Token = только локальный лог.
type Options struct {
	Token string
	Env   string
	Build string
	Host  string
}

// Logger пишет в стандартный log.Logger и, если задан токен, дублирует
// предупреждения и ошибки в Rollbar.
type Logger struct {
	std    *log.Logger
	remote bool
}

func New(w io.Writer, opts Options) *Logger {
	std := log.New(w, "[swimlms] ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	l := &Logger{std: std}
	if opts.Token != "" {
		rollbar.SetToken(opts.Token)
		rollbar.SetEnvironment(opts.Env)
		rollbar.SetCodeVersion(opts.Build)
		rollbar.SetServerHost(opts.Host)
		// стек из pkg/errors
		rollbar.SetStackTracer(errors.StackTracer)
		l.remote = true
	}
	return l
}

func (l *Logger) Std() *log.Logger { return l.std }

// Printf: для пакетов, которым нужен только log.Logger-подобный интерфейс.
func (l *Logger) Printf(format string, v ...any) {
	_ = l.std.Output(2, fmt.Sprintf(format, v...))
}

// ожидаемые args: error, map[string]any, backend.Session
func (l *Logger) prepare(msg string, args []any) []any {
	out := make([]any, 0, len(args)+1)
	out = append(out, msg)
	extras := map[string]any{}
	for _, a := range args {
		switch v := a.(type) {
		case backend.Session:
			// токен в отчёт не попадает
			extras["tenant_id"] = v.TenantID
			extras["user_id"] = v.UserID
			extras["role"] = v.Role
		case map[string]any:
			for k, x := range v {
				extras[k] = x
			}
		default:
			out = append(out, a)
		}
	}
	if len(extras) > 0 {
		out = append(out, extras)
	}
	return out
}

func (l *Logger) print(level, msg string, args []any) {
	_ = l.std.Output(3, level+" "+msg)
	for _, a := range args {
		if _, ok := a.(backend.Session); ok {
			continue
		}
		_ = l.std.Output(3, fmt.Sprintf("  %+v", a))
	}
}

func (l *Logger) Info(msg string, args ...any) {
	l.print("INFO", msg, args)
}

func (l *Logger) Warn(msg string, args ...any) {
	if l.remote {
		rollbar.Warning(l.prepare(msg, args)...)
	}
	l.print("WARN", msg, args)
}

func (l *Logger) Error(msg string, args ...any) {
	if l.remote {
		rollbar.Error(l.prepare(msg, args)...)
	}
	l.print("ERROR", msg, args)
}

// Close дожидается отправки очереди Rollbar.
func (l *Logger) Close() {
	if l.remote {
		rollbar.Close()
	}
}
