package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "with cause",
			err:  NewParsingError("failed to read csv header", fmt.Errorf("unexpected EOF")),
			want: "[PARSING] failed to read csv header: unexpected EOF",
		},
		{
			name: "without cause",
			err:  NewAppValidationError("dataset is empty"),
			want: "[VALIDATION] dataset is empty",
		},
		{
			name: "not found",
			err:  NewNotFoundError("dataset"),
			want: "[NOT_FOUND] dataset not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewStorageError("failed to persist dataset", cause)

	assert.True(t, errors.Is(err, cause))

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, ErrTypeStorage, appErr.Type)
}

func TestAppError_WithContext(t *testing.T) {
	err := NewDetectionError("isolation forest failed", nil).
		WithContext("dataset_id", "abc").
		WithContext("rows", 3000)

	assert.Equal(t, "abc", err.Context["dataset_id"])
	assert.Equal(t, 3000, err.Context["rows"])
}

func TestErrorTypeConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want ErrorType
	}{
		{name: "parsing", err: NewParsingError("m", nil), want: ErrTypeParsing},
		{name: "storage", err: NewStorageError("m", nil), want: ErrTypeStorage},
		{name: "validation", err: NewAppValidationError("m"), want: ErrTypeValidation},
		{name: "not found", err: NewNotFoundError("m"), want: ErrTypeNotFound},
		{name: "detection", err: NewDetectionError("m", nil), want: ErrTypeDetection},
		{name: "config", err: NewConfigError("m", nil), want: ErrTypeConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Type)
		})
	}
}
