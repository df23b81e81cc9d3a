package base

import "log"

// Logger is the injectable logging sink used across the module. There is no
// implicit global logger: a nil Logger field in an Options struct means the
// component logs nothing. DefaultLogger is provided for callers who want
// stdlib logging without writing their own Logger.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
}

type stdLogger struct{}

func (stdLogger) Infof(format string, args ...interface{})  { log.Printf("INFO: "+format, args...) }
func (stdLogger) Errorf(format string, args ...interface{}) { log.Printf("ERROR: "+format, args...) }
func (stdLogger) Fatalf(format string, args ...interface{}) { log.Fatalf("FATAL: "+format, args...) }

// DefaultLogger writes to the standard library's log package.
var DefaultLogger Logger = stdLogger{}
