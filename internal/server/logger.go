package server

import (
	"bytes"
	"net/http"
	"time"

	"github.com/fatih/color"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"codeberg.org/pixsplit/pixsplit/configs"
)

// Logger is a middleware that logs requests.
func Logger() func(next http.Handler) http.Handler {
	return middleware.RequestLogger(newLogger())
}

type httpLogFormatter struct{}

func (f *httpLogFormatter) Format(entry *log.Entry) ([]byte, error) {
	var b bytes.Buffer
	w := color.New(color.FgWhite)

	w.Fprint(&b, "[HTTP")
	if reqID, ok := entry.Data["@id"]; ok {
		color.New(color.FgBlue).Fprintf(&b, " %s", reqID)
	}
	w.Fprint(&b, "] ")

	met, _ := entry.Data["http_method"].(string)
	methodColor(met).Fprint(&b, met)
	w.Fprintf(&b, " %s ", entry.Data["path"])

	status, _ := entry.Data["status"].(int)
	statusColor(status).Fprint(&b, status)

	color.New(color.FgCyan).Fprintf(&b, " %d", entry.Data["length"])
	w.Fprint(&b, " in ")

	ms, _ := entry.Data["elapsed_ms"].(float64)
	elapsed := time.Duration(ms * float64(time.Millisecond))
	switch {
	case elapsed < 500*time.Millisecond:
		color.New(color.FgGreen).Fprint(&b, elapsed)
	case elapsed < time.Second:
		color.New(color.FgYellow).Fprint(&b, elapsed)
	default:
		color.New(color.FgRed).Fprint(&b, elapsed)
	}

	// Conversion timing, when the handler exposed it
	if x, ok := entry.Data["x_elapsed_ms"]; ok && x != "" {
		w.Fprintf(&b, " (engine %sms)", x)
	}

	b.WriteString("\n")
	return b.Bytes(), nil
}

func methodColor(m string) *color.Color {
	switch m {
	case "GET", "HEAD":
		return color.New(color.Bold, color.FgHiBlue)
	case "POST":
		return color.New(color.Bold, color.FgHiGreen)
	case "PATCH", "PUT":
		return color.New(color.Bold, color.FgYellow)
	case "DELETE":
		return color.New(color.Bold, color.FgRed)
	}
	return color.New(color.Bold, color.FgHiWhite)
}

func statusColor(status int) *color.Color {
	switch {
	case status < 200:
		return color.New(color.FgBlue)
	case status < 300:
		return color.New(color.FgGreen)
	case status < 400:
		return color.New(color.FgCyan)
	case status < 500:
		return color.New(color.FgYellow)
	}
	return color.New(color.FgRed)
}

func newLogger() *structuredLogger {
	l := &structuredLogger{}
	if configs.Config.Main.DevMode {
		color.NoColor = false
		l.logger = log.New()
		l.logger.Formatter = &httpLogFormatter{}
		l.logger.Level = log.StandardLogger().Level
	} else {
		l.logger = log.StandardLogger()
	}

	return l
}

type structuredLogger struct {
	logger *log.Logger
}

func (sl *structuredLogger) NewLogEntry(r *http.Request) middleware.LogEntry {
	le := sl.logger.WithField("@id", middleware.GetReqID(r.Context())).
		WithFields(log.Fields{
			"http_method": r.Method,
			"http_proto":  r.Proto,
			"remote_addr": r.RemoteAddr,
			"path":        r.RequestURI,
			"ua":          r.UserAgent(),
		})

	return &structuredLoggerEntry{le}
}

type structuredLoggerEntry struct {
	e *log.Entry
}

func (l *structuredLoggerEntry) Write(status, bytes int, header http.Header, elapsed time.Duration, _ interface{}) {
	l.e.WithFields(log.Fields{
		"status":       status,
		"length":       bytes,
		"elapsed_ms":   float64(elapsed.Nanoseconds()) / 1000000.0,
		"x_elapsed_ms": header.Get("X-Elapsed-Ms"),
	}).Info("http")
}

func (l *structuredLoggerEntry) Panic(v interface{}, stack []byte) {
	l.e.WithField("panic", v).Error(string(stack))
}
