package services

import (
	"sync"

	"qobuz-relay/internal/shared"
)

// ConsoleLogger implementation
type ConsoleLogger struct {
	mu        sync.Mutex
	debugMode bool
}

func NewConsoleLogger() *ConsoleLogger {
	return &ConsoleLogger{debugMode: false}
}

func (cl *ConsoleLogger) Info(message string, args ...interface{}) {
	shared.ColorInfo.Printf(message+"\n", args...)
}

func (cl *ConsoleLogger) Warning(message string, args ...interface{}) {
	shared.ColorWarning.Printf("⚠️ "+message+"\n", args...)
}

func (cl *ConsoleLogger) Error(message string, args ...interface{}) {
	shared.ColorError.Printf("❌ "+message+"\n", args...)
}

func (cl *ConsoleLogger) Debug(message string, args ...interface{}) {
	cl.mu.Lock()
	enabled := cl.debugMode
	cl.mu.Unlock()
	if enabled {
		shared.ColorInfo.Printf("🐛 DEBUG: "+message+"\n", args...)
	}
}

func (cl *ConsoleLogger) Success(message string, args ...interface{}) {
	shared.ColorSuccess.Printf("✅ "+message+"\n", args...)
}

func (cl *ConsoleLogger) SetDebugMode(enabled bool) {
	cl.mu.Lock()
	cl.debugMode = enabled
	cl.mu.Unlock()
}
