package logger

import (
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

// wrapperPackages never show up as the reported caller: log lines point at
// the code that asked for them, including metrics emitted on its behalf.
var wrapperPackages = []string{
	"github.com/sirupsen/logrus.",
	"optioncatalog/logger.",
	"optioncatalog/internal/metrics.",
}

type callerHook struct{}

func (callerHook) Levels() []logrus.Level { return logrus.AllLevels }

func (callerHook) Fire(entry *logrus.Entry) error {
	var pcs [32]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if !wrapped(frame.Function) {
			entry.Caller = &frame
			return nil
		}
		if !more {
			return nil
		}
	}
}

func wrapped(fn string) bool {
	for _, p := range wrapperPackages {
		if strings.HasPrefix(fn, p) || strings.Contains(fn, "/"+p) {
			return true
		}
	}
	return false
}
