// Copyright 2025 The MemGuard Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package log provides a small leveled logging facility. The package-level
// logger writes to stderr by default; binaries retarget it at startup with
// SetTarget and SetLevel.
//
// Logging must never block progress of the code being logged: the Writer
// sink drops messages it cannot write and reports the count once writing
// recovers.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Level is a logging severity.
type Level uint32

// The set of supported levels, least verbose first.
const (
	Warning Level = iota
	Info
	Debug
)

// String implements fmt.Stringer.
func (l Level) String() string {
	switch l {
	case Warning:
		return "Warning"
	case Info:
		return "Info"
	case Debug:
		return "Debug"
	default:
		return fmt.Sprintf("Invalid level: %d", l)
	}
}

// char returns the glog-style single character for the level.
func (l Level) char() byte {
	switch l {
	case Warning:
		return 'W'
	case Info:
		return 'I'
	default:
		return 'D'
	}
}

// Emitter is the final destination of log lines.
type Emitter interface {
	// Emit writes a single log line. The timestamp is the time of the
	// logging call, not of the write.
	Emit(level Level, timestamp time.Time, format string, v ...any)
}

// Writer writes lines to an underlying io.Writer. Write errors do not
// propagate to the logging call site; the failed messages are counted and a
// notice is emitted when writing next succeeds.
type Writer struct {
	// Next is the underlying writer.
	Next io.Writer

	// mu serializes writes from concurrent threads.
	mu sync.Mutex

	// dropped is the number of messages lost to write errors since the last
	// successful write.
	dropped int
}

// Write implements io.Writer.
func (w *Writer) Write(data []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dropped > 0 {
		if _, err := fmt.Fprintf(w.Next, "\n*** Dropped %d log messages ***\n", w.dropped); err != nil {
			w.dropped++
			return 0, err
		}
		w.dropped = 0
	}
	n, err := w.Next.Write(data)
	if err != nil {
		w.dropped++
	}
	return n, err
}

// Emit implements Emitter.Emit.
func (w *Writer) Emit(_ Level, _ time.Time, format string, args ...any) {
	fmt.Fprintf(w, format+"\n", args...)
}

// pid is stamped into every header once; it does not change.
var pid = os.Getpid()

// TextEmitter prefixes each line with a glog-style header:
//
//	Lmmdd hh:mm:ss.uuuuuu pid] msg...
type TextEmitter struct {
	// Emitter is the underlying emitter.
	Emitter
}

// Emit implements Emitter.Emit.
func (t TextEmitter) Emit(level Level, timestamp time.Time, format string, args ...any) {
	header := fmt.Sprintf("%c%s %d] ", level.char(), timestamp.Format("0102 15:04:05.000000"), pid)
	t.Emitter.Emit(level, timestamp, header+format, args...)
}

// BasicLogger logs to an Emitter at or below its Level.
type BasicLogger struct {
	Level
	Emitter
}

// Debugf logs a debug statement.
func (l *BasicLogger) Debugf(format string, v ...any) {
	if l.IsLogging(Debug) {
		l.Emit(Debug, time.Now(), format, v...)
	}
}

// Infof logs at the info level.
func (l *BasicLogger) Infof(format string, v ...any) {
	if l.IsLogging(Info) {
		l.Emit(Info, time.Now(), format, v...)
	}
}

// Warningf logs at the warning level.
func (l *BasicLogger) Warningf(format string, v ...any) {
	if l.IsLogging(Warning) {
		l.Emit(Warning, time.Now(), format, v...)
	}
}

// IsLogging returns whether the given level is being logged.
func (l *BasicLogger) IsLogging(level Level) bool {
	return level <= l.Level
}

// logger is the process logger, swapped wholesale by SetTarget and SetLevel
// so that logging calls never take a lock.
var logger atomic.Pointer[BasicLogger]

func init() {
	logger.Store(&BasicLogger{Level: Info, Emitter: TextEmitter{Emitter: &Writer{Next: os.Stderr}}})
}

// Log retrieves the process logger.
func Log() *BasicLogger {
	return logger.Load()
}

// SetTarget sets the destination of the process logger, keeping its level.
func SetTarget(target Emitter) {
	old := logger.Load()
	logger.Store(&BasicLogger{Level: old.Level, Emitter: target})
}

// SetLevel sets the level of the process logger, keeping its destination.
func SetLevel(newLevel Level) {
	old := logger.Load()
	logger.Store(&BasicLogger{Level: newLevel, Emitter: old.Emitter})
}

// Debugf logs a debug statement to the process logger.
func Debugf(format string, v ...any) {
	Log().Debugf(format, v...)
}

// Infof logs at the info level to the process logger.
func Infof(format string, v ...any) {
	Log().Infof(format, v...)
}

// Warningf logs at the warning level to the process logger.
func Warningf(format string, v ...any) {
	Log().Warningf(format, v...)
}

// IsLogging returns whether the process logger emits the given level.
func IsLogging(level Level) bool {
	return Log().IsLogging(level)
}
