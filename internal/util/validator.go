package util

import (
	"fmt"
	"time"
)

// ValidateUsername checks length and non-emptiness.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username is empty")
	}
	if len(username) > 64 {
		return fmt.Errorf("username too long, max 64 characters")
	}
	return nil
}

// ValidatePassword enforces a minimal length.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	return nil
}

// ValidateDate checks YYYY-MM-DD format.
func ValidateDate(dateStr string) error {
	if dateStr == "" {
		return fmt.Errorf("date is empty")
	}
	if _, err := time.Parse(time.DateOnly, dateStr); err != nil {
		return fmt.Errorf("invalid date format: %w", err)
	}
	return nil
}
