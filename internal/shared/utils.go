package shared

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
)

// Constants
const (
	DefaultMaxRetries = 3
	UserAgent         = "qobuz-relay/1.0"
)

// RetryWithBackoff retries fn with exponential backoff and jitter until it
// succeeds, maxRetries attempts are spent, or ctx is done.
func RetryWithBackoff(ctx context.Context, maxRetries int, initialDelay time.Duration, fn func() error) error {
	if maxRetries <= 0 {
		maxRetries = 1
	}
	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if attempt == maxRetries-1 {
			break
		}

		delay := initialDelay * time.Duration(1<<attempt)
		jitter := time.Duration(rand.Intn(100)) * time.Millisecond
		select {
		case <-time.After(delay + jitter):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", maxRetries, err)
}

// GetUserInput prompts the user for input with a default value
func GetUserInput(prompt, defaultValue string) string {
	if defaultValue != "" {
		prompt = fmt.Sprintf("%s [%s]", prompt, defaultValue)
	}
	ColorPrompt.Print(prompt + ": ")
	scanner := bufio.NewScanner(os.Stdin)
	if scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input == "" && defaultValue != "" {
			return defaultValue
		}
		return input
	}
	return defaultValue
}

// GetYesNoInput prompts the user for a yes/no input with a default value
func GetYesNoInput(prompt string, defaultValue string) bool {
	for {
		input := GetUserInput(prompt, defaultValue)
		switch strings.ToLower(input) {
		case "y", "yes":
			return true
		case "n", "no":
			return false
		default:
			ColorError.Printf("❌ Invalid input. Please enter 'y' or 'n'.\n")
		}
	}
}

// SanitizeFileName cleans a string to make it safe for use as a file name
func SanitizeFileName(name string) string {
	invalidChars := []string{"<", ">", ":", `"`, `/`, `\`, `|`, `?`, `*`, "\x00"}
	result := name
	for _, char := range invalidChars {
		result = strings.ReplaceAll(result, char, "_")
	}
	result = strings.Trim(result, " .")
	if len(result) > 255 {
		result = result[:255]
	}
	if result == "" {
		result = "unknown"
	}
	return result
}

// FileExists checks if a file exists at the given path
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// CreateDirIfNotExists normalizes dir and creates it with its parents.
func CreateDirIfNotExists(dir string) (string, error) {
	dir = filepath.Clean(dir)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", err
		}
	}
	return dir, nil
}

// TruncateString truncates a string to the specified length, adding ellipsis if truncated.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// IdToString renders the loosely typed ids the API returns (numbers for
// tracks and artists, strings for albums).
func IdToString(id interface{}) string {
	switch v := id.(type) {
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// FormatSamplingRate prints 44.1 as "44.1" and 96.0 as "96".
func FormatSamplingRate(rate float64) string {
	return strconv.FormatFloat(rate, 'f', -1, 64)
}

// ParseSelectionInput parses a string like "1-7, 10, 12-15" into a slice of unique integers.
func ParseSelectionInput(input string, max int) ([]int, error) {
	selected := make(map[int]bool)
	var result []int

	parts := strings.Split(input, ",")
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if strings.Contains(part, "-") {
			rangeParts := strings.Split(part, "-")
			if len(rangeParts) != 2 {
				return nil, fmt.Errorf("invalid range format: %s", part)
			}
			start, err := strconv.Atoi(strings.TrimSpace(rangeParts[0]))
			if err != nil {
				return nil, fmt.Errorf("invalid start of range: %s", rangeParts[0])
			}
			end, err := strconv.Atoi(strings.TrimSpace(rangeParts[1]))
			if err != nil {
				return nil, fmt.Errorf("invalid end of range: %s", rangeParts[1])
			}

			if start > end {
				start, end = end, start
			}

			for i := start; i <= end; i++ {
				if i >= 1 && i <= max && !selected[i] {
					selected[i] = true
					result = append(result, i)
				}
			}
		} else {
			num, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("invalid number: %s", part)
			}
			if num >= 1 && num <= max && !selected[num] {
				selected[num] = true
				result = append(result, num)
			}
		}
	}

	return result, nil
}

func IsTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd())
}

// VerifyFileSize checks if a file exists and matches the expected size
func VerifyFileSize(filePath string, expectedSize int64) (bool, int64, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return false, 0, fmt.Errorf("failed to stat file: %w", err)
	}

	actualSize := info.Size()
	return actualSize == expectedSize, actualSize, nil
}

// VerifyFileIntegrity compares the file on disk with the size announced by the server.
func VerifyFileIntegrity(filePath string, expectedSize int64) error {
	if expectedSize <= 0 {
		return nil
	}

	matches, actualSize, err := VerifyFileSize(filePath, expectedSize)
	if err != nil {
		return fmt.Errorf("file verification failed: %w", err)
	}

	if !matches {
		return fmt.Errorf("file size mismatch: expected %d bytes, got %d bytes", expectedSize, actualSize)
	}
	return nil
}
