package domain

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration     = errors.New("configuration error")
	ErrLoad              = errors.New("load error")
	ErrEmbedding         = errors.New("embedding error")
	ErrGeneration        = errors.New("generation error")
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrTemporary         = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// CheckDimension fails with ErrDimensionMismatch when vector does not have the expected length.
func CheckDimension(operation string, expected int, vector []float32) error {
	if expected <= 0 || len(vector) == expected {
		return nil
	}
	return WrapError(ErrDimensionMismatch, operation, fmt.Errorf("expected %d, got %d", expected, len(vector)))
}
