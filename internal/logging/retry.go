package logging

import "github.com/rs/zerolog"

// RetryLogger adapts a Logger to retryablehttp.LeveledLogger. Request-level
// chatter (Info/Debug from the retry client) is demoted to debug.
type RetryLogger struct {
	L *Logger
}

func (r RetryLogger) Error(msg string, keysAndValues ...interface{}) {
	withFields(r.L.Error(), keysAndValues).Msg(msg)
}

func (r RetryLogger) Warn(msg string, keysAndValues ...interface{}) {
	withFields(r.L.Warn(), keysAndValues).Msg(msg)
}

func (r RetryLogger) Info(msg string, keysAndValues ...interface{}) {
	withFields(r.L.Debug(), keysAndValues).Msg(msg)
}

func (r RetryLogger) Debug(msg string, keysAndValues ...interface{}) {
	withFields(r.L.Debug(), keysAndValues).Msg(msg)
}

// withFields attaches alternating key/value pairs. A trailing key with no
// value is dropped.
func withFields(e *zerolog.Event, kv []interface{}) *zerolog.Event {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, kv[i+1])
	}
	return e
}
