package logger

import (
	"log/slog"
	"os"
)

type Logger struct {
	*slog.Logger
}

func NewLogger() *Logger {
	return NewLoggerWithLevel(slog.LevelDebug)
}

func NewLoggerWithLevel(level slog.Level) *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})),
	}
}

// WithOp returns a logger that tags every record with the operation name and
// its correlation id, so a genericized user-facing failure can be matched back
// to the full diagnostic detail.
func (l *Logger) WithOp(op, opID string) *Logger {
	return &Logger{Logger: l.Logger.With("op", op, "op_id", opID)}
}

func (l *Logger) LogFieldsToArgs(fields map[string]interface{}) []interface{} {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return args
}
