package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	slogmulti "github.com/samber/slog-multi"
)

type LogCode string

const (
	// SYSTEM EVENTS (SYSTEM*)
	SYSTEM LogCode = "SYSTEM"

	// ACCESS EVENTS (ACCESS*)
	ACCESS_DENIED   LogCode = "ACCESS_DENIED"
	ACCESS_NO_SCOPE LogCode = "ACCESS_NO_SCOPE"

	// REPORT OPERATIONS (REPORT*)
	REPORT_AUTOFILL LogCode = "REPORT_AUTOFILL"
	REPORT_FINALIZE LogCode = "REPORT_FINALIZE"
	REPORT_ARCHIVE  LogCode = "REPORT_ARCHIVE"
)

const (
	TextFormat = "text"
	JsonFormat = "json"
)

// VictoriaLogs has fixed field name for time (_time) and message(_msg). This function maps fields msg -> _msg and time -> _time.
func convertKeysToVictoriaLogs(keys []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		return slog.Attr{Key: "_time", Value: slog.StringValue(a.Value.Time().Format("2006-01-02 15:04:05"))}
	}
	if a.Key == slog.MessageKey {
		return slog.Attr{Key: "_msg", Value: a.Value}
	}
	return a
}

func GetVictoriaLogsOptions(addSource bool) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level:       slog.LevelDebug,
		ReplaceAttr: convertKeysToVictoriaLogs,
		AddSource:   addSource,
	}
}

// NewHandler returns a colourised console handler for the text format and a
// VictoriaLogs compatible json handler otherwise.
func NewHandler(w io.Writer, format string) slog.Handler {
	if format == JsonFormat {
		return slog.NewJSONHandler(w, GetVictoriaLogsOptions(true))
	}
	return tint.NewHandler(w, &tint.Options{
		Level:      slog.LevelDebug,
		AddSource:  true,
		TimeFormat: time.DateTime,
	})
}

// Init installs the default logger: json lines to logFile for log shipping and
// a console handler on stderr in the given format.
func Init(logFile io.Writer, format string, attrs ...slog.Attr) {
	var fileHandler slog.Handler = slog.NewJSONHandler(logFile, GetVictoriaLogsOptions(true))
	fileHandler = fileHandler.WithAttrs(attrs)

	logger := slog.New(slogmulti.Fanout(fileHandler, NewHandler(os.Stderr, format)))
	slog.SetDefault(logger)
}
