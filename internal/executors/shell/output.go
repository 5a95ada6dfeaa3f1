package shell

import (
	"bytes"
	"log/slog"
	"sync"
)

// lineLogger is an io.Writer that logs every complete line it receives.
type lineLogger struct {
	mu     sync.Mutex
	logger *slog.Logger
	stream string
	buf    bytes.Buffer
}

func newLineLogger(logger *slog.Logger, stream string) *lineLogger {
	return &lineLogger{logger: logger, stream: stream}
}

func (l *lineLogger) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.buf.Write(p)
	for {
		line, err := l.buf.ReadBytes('\n')
		if err != nil {
			// Incomplete line: keep it for the next write.
			rest := bytes.Clone(line)
			l.buf.Reset()
			l.buf.Write(rest)
			break
		}
		l.emit(line[:len(line)-1])
	}
	return len(p), nil
}

// Flush logs a trailing line that had no newline.
func (l *lineLogger) Flush() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.buf.Len() > 0 {
		l.emit(l.buf.Bytes())
		l.buf.Reset()
	}
}

func (l *lineLogger) emit(line []byte) {
	line = bytes.TrimSuffix(line, []byte{'\r'})
	l.logger.Info(string(line), "stream", l.stream)
}
