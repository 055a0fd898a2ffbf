package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

var (
	infoColor    = color.New(color.FgGreen).SprintFunc()
	warnColor    = color.New(color.FgYellow).SprintFunc()
	errorColor   = color.New(color.FgRed).SprintFunc()
	debugColor   = color.New(color.FgCyan).SprintFunc()
	processColor = color.New(color.FgMagenta).SprintFunc()
	catColor     = color.New(color.Bold).SprintFunc()
)

// Logger is a small leveled, category-tagged logger. Every line carries a
// timestamp, a level and a [CATEGORY] tag so grepping a long run stays sane.
type Logger struct {
	mu    sync.Mutex
	out   io.Writer
	file  *os.File
	debug bool
}

// NewLogger writes to stdout and, when LOG_FILE is set, mirrors every line
// into that file. DEBUG=true enables Debug output.
func NewLogger() *Logger {
	l := &Logger{
		out:   os.Stdout,
		debug: os.Getenv("DEBUG") == "true",
	}

	if path := os.Getenv("LOG_FILE"); path != "" {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err == nil {
			l.file = f
			l.out = io.MultiWriter(os.Stdout, f)
		}
	}

	return l
}

func (l *Logger) Close() {
	if l.file != nil {
		l.file.Close()
	}
}

func (l *Logger) write(level, category, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := time.Now().Format("2006-01-02 15:04:05.000")
	fmt.Fprintf(l.out, "%s %s %s %s\n", ts, level, catColor("["+category+"]"), msg)
}

func (l *Logger) Info(category, msg string) {
	l.write(infoColor("INFO "), category, msg)
}

func (l *Logger) Warn(category, msg string) {
	l.write(warnColor("WARN "), category, msg)
}

func (l *Logger) Error(category, msg string) {
	l.write(errorColor("ERROR"), category, msg)
}

func (l *Logger) Debug(category, msg string) {
	if !l.debug {
		return
	}
	l.write(debugColor("DEBUG"), category, msg)
}

func (l *Logger) Fatal(category, msg string) {
	l.write(errorColor("FATAL"), category, msg)
	l.Close()
	os.Exit(1)
}

// LogProcess marks lifecycle milestones (startup, wiring, shutdown).
func (l *Logger) LogProcess(stage, msg string) {
	l.write(processColor("PROC "), stage, msg)
}

func (l *Logger) LogAPI(method, path, status, duration string) {
	l.Info("API", fmt.Sprintf("%s %s - %s (%s)", method, path, status, duration))
}

func (l *Logger) LogDatabase(op, db, msg string) {
	l.Info("DATABASE", fmt.Sprintf("[%s:%s] %s", db, op, msg))
}

func (l *Logger) LogKafka(op, topic, msg string) {
	l.Info("KAFKA", fmt.Sprintf("[%s:%s] %s", topic, op, msg))
}

func (l *Logger) LogBooking(op, reference, msg string) {
	l.Info("BOOKING", fmt.Sprintf("[%s:%s] %s", reference, op, msg))
}

func (l *Logger) LogPayment(op, id, msg string) {
	l.Info("PAYMENT", fmt.Sprintf("[%s:%s] %s", id, op, msg))
}

// LogSecurity lines are kept on a dedicated tag so verification mismatches
// and rate-limit hits can be routed to fraud review.
func (l *Logger) LogSecurity(event, msg string) {
	l.Warn("SECURITY", fmt.Sprintf("[%s] %s", event, msg))
}

func (l *Logger) LogMail(op, to, msg string) {
	l.Info("MAIL", fmt.Sprintf("[%s:%s] %s", to, op, msg))
}
