package logger

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
)

type Options struct {
	Development bool
	Environment string
	SentryDSN   string
	Output      io.Writer // defaults to os.Stdout
}

// Init installs the process-wide slog default.
// Development: text at Debug. Otherwise: JSON at Info.
// With a Sentry DSN, Error records are also forwarded to Sentry.
// The returned func flushes buffered Sentry events and should be deferred by main.
func Init(opts Options) func() {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	handlers := []slog.Handler{baseHandler(out, opts.Development)}
	flush := func() {}

	if opts.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              opts.SentryDSN,
			Environment:      opts.Environment,
			TracesSampleRate: 0.2,
		})
		if err == nil {
			handlers = append(handlers, slogsentry.Option{
				Level: slog.LevelError,
			}.NewSentryHandler())
			flush = func() { sentry.Flush(2 * time.Second) }
		} else {
			slog.New(handlers[0]).Warn("sentry disabled", "error", err)
		}
	}

	var handler slog.Handler
	if len(handlers) > 1 {
		handler = slogmulti.Fanout(handlers...)
	} else {
		handler = handlers[0]
	}

	slog.SetDefault(slog.New(handler))
	return flush
}

func baseHandler(out io.Writer, dev bool) slog.Handler {
	if dev {
		return slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo})
}
