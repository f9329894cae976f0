package debug

import (
	"fmt"
	"log"
	"time"
)

// DebugHeader marks the start of a traced pipeline step if debugging is
// enabled
func DebugHeader(enabled bool) {
	if enabled {
		log.Printf("=== LINKAGE DEBUG START ===")
	}
}

// DebugFooter marks the end of a traced pipeline step if debugging is
// enabled
func DebugFooter(enabled bool) {
	if enabled {
		log.Printf("=== LINKAGE DEBUG END ===")
	}
}

// DebugOutput prints timestamped debug output if debugging is enabled
func DebugOutput(enabled bool, format string, args ...interface{}) {
	if enabled {
		timestamp := time.Now().Format("15:04:05.000")
		message := fmt.Sprintf(format, args...)
		log.Printf("[%s] %s", timestamp, message)
	}
}

// DebugTiming measures and logs execution time if debugging is enabled
func DebugTiming(enabled bool, operation string) func() {
	if !enabled {
		return func() {}
	}

	start := time.Now()
	DebugOutput(enabled, "Starting: %s", operation)

	return func() {
		DebugOutput(enabled, "Completed: %s (took %v)", operation, time.Since(start))
	}
}
