package health

import (
	"context"
	"fmt"
	"runtime"
)

// GoroutineCountCheck fails when the process has more goroutines than
// threshold, a cheap proxy for leaks.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(context.Context) error {
		if n := runtime.NumGoroutine(); n > threshold {
			return fmt.Errorf("%d goroutines (threshold %d)", n, threshold)
		}
		return nil
	}
}
