package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Common error types used across benchmark packages
var (
	ErrPathEmpty         = errors.New("path cannot be empty")
	ErrFolderNotExist    = errors.New("folder does not exist")
	ErrCodeWidthMismatch = errors.New("code width differs from first row")
	ErrEmptyTable        = errors.New("simprint table has no rows")
)

// IntegrityError reports a directory checksum that does not match the
// expected value. The computed checksum is carried so callers can persist
// it after reviewing the drift.
type IntegrityError struct {
	Path     string
	Expected string
	Actual   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity check failed for %s: expected checksum %s, got %s", e.Path, e.Expected, e.Actual)
}

// EmptyFileError reports a zero-byte file encountered during hashing.
type EmptyFileError struct {
	Path string
}

func (e *EmptyFileError) Error() string {
	return fmt.Sprintf("empty file: %s", e.Path)
}

// DuplicateFileError reports two files with byte-identical content.
type DuplicateFileError struct {
	PathA string
	PathB string
}

func (e *DuplicateFileError) Error() string {
	return fmt.Sprintf("duplicate file: %s == %s", e.PathA, e.PathB)
}

// ValidationUtils provides common validation utilities used across packages
type ValidationUtils struct{}

// NewValidationUtils creates a new ValidationUtils instance
func NewValidationUtils() *ValidationUtils {
	return &ValidationUtils{}
}

// ValidateContextCancellation checks if context is cancelled and returns appropriate error
func (vu *ValidationUtils) ValidateContextCancellation(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// ValidateRequiredString validates that a string is not empty
func (vu *ValidationUtils) ValidateRequiredString(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	return nil
}

// ValidateFileExists validates that a file exists
func (vu *ValidationUtils) ValidateFileExists(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return ErrFolderNotExist
		}
		return fmt.Errorf("failed to access file %s: %w", path, err)
	}
	return nil
}

// ValidateDirectoryExists validates that a directory exists
func (vu *ValidationUtils) ValidateDirectoryExists(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrFolderNotExist
		}
		return fmt.Errorf("failed to access directory %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}
	return nil
}

// ErrorUtils provides common error handling utilities
type ErrorUtils struct{}

// NewErrorUtils creates a new ErrorUtils instance
func NewErrorUtils() *ErrorUtils {
	return &ErrorUtils{}
}

// WrapError wraps an error with additional context
func (eu *ErrorUtils) WrapError(err error, message string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	context := fmt.Sprintf(message, args...)
	return fmt.Errorf("%s: %w", context, err)
}

// LogAndWrapError logs an error and wraps it with context
func (eu *ErrorUtils) LogAndWrapError(err error, level slog.Level, message string, args ...interface{}) error {
	if err == nil {
		return nil
	}

	context := fmt.Sprintf(message, args...)

	switch level {
	case slog.LevelDebug:
		slog.Debug(context, "error", err)
	case slog.LevelInfo:
		slog.Info(context, "error", err)
	case slog.LevelWarn:
		slog.Warn(context, "error", err)
	case slog.LevelError:
		slog.Error(context, "error", err)
	}

	return fmt.Errorf("%s: %w", context, err)
}
