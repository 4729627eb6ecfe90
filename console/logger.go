// Package console is the sweep's terminal output: leveled log lines plus
// color-tagged banners and status lines around every trial.
package console

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
)

const ruleWidth = 70

// Logger is a leveled logger with colored status lines.
type Logger struct {
	*log.Logger
	mu    sync.Mutex
	debug bool

	cyan    func(a ...interface{}) string
	blue    func(a ...interface{}) string
	yellow  func(a ...interface{}) string
	green   func(a ...interface{}) string
	red     func(a ...interface{}) string
	magenta func(a ...interface{}) string
}

// New returns a logger writing to w with debug output off.
func New(w io.Writer) *Logger {
	return &Logger{
		Logger:  log.New(w, "", log.Ldate|log.Ltime|log.Lmicroseconds),
		cyan:    color.New(color.FgCyan).SprintFunc(),
		blue:    color.New(color.FgBlue).SprintFunc(),
		yellow:  color.New(color.FgYellow).SprintFunc(),
		green:   color.New(color.FgGreen).SprintFunc(),
		red:     color.New(color.FgRed).SprintFunc(),
		magenta: color.New(color.FgMagenta).SprintFunc(),
	}
}

// Default writes to stdout.
func Default() *Logger {
	return New(os.Stdout)
}

// SetDebug turns Debug lines on or off.
func (l *Logger) SetDebug(on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debug = on
}

func (l *Logger) DebugEnabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.debug
}

func (l *Logger) Info(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Printf("[INFO] "+format, v...)
}

func (l *Logger) Debug(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.debug {
		return
	}
	l.Printf("[DEBUG] "+format, v...)
}

func (l *Logger) Error(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Printf("[ERROR] "+l.red(format), v...)
}

// Rule prints a horizontal separator.
func (l *Logger) Rule() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Println(l.blue(strings.Repeat("=", ruleWidth)))
}

// Section announces a group of trials, e.g. a new sample size.
func (l *Logger) Section(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Println(l.cyan(fmt.Sprintf("\n🔎 "+format, v...)))
}

// Banner is printed before a trial starts.
func (l *Logger) Banner(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Println(l.blue(strings.Repeat("=", ruleWidth)))
	l.Println(l.yellow(fmt.Sprintf("▶️  Test: "+format, v...)))
}

// Success reports a finished trial.
func (l *Logger) Success(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Println(l.green(fmt.Sprintf("✅ "+format, v...)))
}

// Saved reports a file written for a trial.
func (l *Logger) Saved(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Println(l.magenta(fmt.Sprintf("📁 "+format, v...)))
}

// Failure reports a trial that was skipped.
func (l *Logger) Failure(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Println(l.red(fmt.Sprintf("❌ "+format, v...)))
}

// Block prints a multi-line text, such as a table or a plot, as is.
func (l *Logger) Block(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Writer().Write([]byte(strings.TrimRight(text, "\n") + "\n"))
}
