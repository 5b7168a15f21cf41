// -----------------------------------------------------------------------
// Safe execution - Panic-protected wrappers
// -----------------------------------------------------------------------

package common

import (
	"fmt"
	"os"
	"runtime"

	"github.com/ternarybob/arbor"
)

// SafeGo runs a function in a goroutine with panic recovery.
// Panics are logged but don't crash the process.
func SafeGo(logger arbor.ILogger, name string, fn func()) {
	go func() {
		_ = SafeRun(logger, name, func() error {
			fn()
			return nil
		})
	}()
}

// SafeRun calls fn and converts a panic into an error, so one failing
// unit of work cannot take down its siblings.
func SafeRun(logger arbor.ILogger, name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			stackTrace := string(buf[:n])

			if logger != nil {
				logger.Error().
					Str("goroutine", name).
					Str("panic", fmt.Sprintf("%v", r)).
					Str("stack", stackTrace).
					Msg("Recovered from panic - continuing")
			} else {
				fmt.Fprintf(os.Stderr, "PANIC in %s: %v\n%s\n", name, r, stackTrace)
			}

			err = fmt.Errorf("panic in %s: %v", name, r)
		}
	}()

	return fn()
}
