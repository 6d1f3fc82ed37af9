package signals

import "sync"

// testLogger captures log entries for assertions.
type testLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

type logEntry struct {
	level string
	msg   string
	args  []any
}

func (l *testLogger) log(level, msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, args: args})
}

func (l *testLogger) Info(msg string, args ...any)  { l.log("info", msg, args...) }
func (l *testLogger) Error(msg string, args ...any) { l.log("error", msg, args...) }
func (l *testLogger) Warn(msg string, args ...any)  { l.log("warn", msg, args...) }
func (l *testLogger) Debug(msg string, args ...any) { l.log("debug", msg, args...) }

func (l *testLogger) messages(level string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var msgs []string
	for _, e := range l.entries {
		if e.level == level {
			msgs = append(msgs, e.msg)
		}
	}
	return msgs
}

// newTestAgent builds an agent over a capturing logger.
func newTestAgent() (*Agent, *testLogger) {
	logger := &testLogger{}
	return New(logger), logger
}
