package errors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamesakeError(t *testing.T) {
	tests := []struct {
		name     string
		err      *NamesakeError
		expected string
	}{
		{
			name: "basic error",
			err: &NamesakeError{
				Type:    ErrorTypeValidation,
				Code:    "TEST_ERROR",
				Message: "test message",
			},
			expected: "[TEST_ERROR] test message",
		},
		{
			name: "error with component",
			err: &NamesakeError{
				Type:      ErrorTypeValidation,
				Code:      "TEST_ERROR",
				Message:   "test message",
				Component: "replacer",
			},
			expected: "[TEST_ERROR] component:replacer test message",
		},
		{
			name: "error with file",
			err: &NamesakeError{
				Type:     ErrorTypeIO,
				Code:     "TEST_ERROR",
				Message:  "test message",
				FilePath: "index.html",
			},
			expected: "[TEST_ERROR] index.html test message",
		},
		{
			name: "error with cause",
			err: &NamesakeError{
				Type:    ErrorTypeValidation,
				Code:    "TEST_ERROR",
				Message: "test message",
				Cause:   errors.New("underlying error"),
			},
			expected: "[TEST_ERROR] test message: underlying error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestNamesakeErrorIs(t *testing.T) {
	wrapped := Wrap(ErrNegativeDepth, ErrorTypeInternal, ErrCodeInternalError, "walk failed")

	assert.True(t, errors.Is(wrapped, ErrNegativeDepth))
	assert.False(t, errors.Is(wrapped, ErrNoContentRoot))
	assert.True(t, IsType(ErrNoContentRoot, ErrorTypeDocument))
}

func TestWrap(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, ErrorTypeIO, "X", "y"))
	})

	t.Run("keeps inner file", func(t *testing.T) {
		inner := NewParseError(ErrCodeParseFailed, "bad html", nil).WithFile("a.html")
		outer := WrapIO(inner, ErrCodeWriteFailed, "write failed")

		require.NotNil(t, outer)
		assert.Equal(t, "a.html", outer.FilePath)
		assert.False(t, outer.Recoverable)
		assert.False(t, IsRecoverable(outer))
	})

	t.Run("plain errors become recoverable parse errors", func(t *testing.T) {
		err := WrapParse(errors.New("eof"), ErrCodeParseFailed, "parse")
		assert.True(t, IsRecoverable(err))
	})
}

func TestValidationErrorCollection(t *testing.T) {
	vec := &ValidationErrorCollection{}
	assert.False(t, vec.HasErrors())
	assert.Nil(t, vec.ToNamesakeError())
	assert.Equal(t, "no validation errors", vec.Error())

	vec.AddField("names.first[0].dead", "Ann", "duplicate dead name", "remove one of the entries")
	assert.Contains(t, vec.Error(), "names.first[0].dead")

	vec.AddField("theme", "pink", "unknown theme")
	assert.Equal(t, "validation failed with 2 errors", vec.Error())

	ne := vec.ToNamesakeError()
	require.NotNil(t, ne)
	assert.Equal(t, ErrCodeValidationFailed, ne.Code)
	assert.Contains(t, ne.Context, "theme")

	formatted := FormatErrorWithSuggestions(WrapConfig(vec, ErrCodeConfigInvalid, "invalid configuration"))
	assert.Contains(t, formatted, "remove one of the entries")
	assert.Contains(t, formatted, "unknown theme")
}

type recordingLogger struct {
	warns  int
	errors int
}

func (r *recordingLogger) Error(ctx context.Context, err error, msg string, fields ...interface{}) {
	r.errors++
}

func (r *recordingLogger) Warn(ctx context.Context, err error, msg string, fields ...interface{}) {
	r.warns++
}

func TestErrorHandler(t *testing.T) {
	logger := &recordingLogger{}
	handler := NewErrorHandler(logger)

	handler.Handle(context.Background(), nil)
	handler.Handle(context.Background(), ErrNodeNotFound("/html/body/p"))
	handler.Handle(context.Background(), NewIOError(ErrCodeWriteFailed, "disk full", nil))
	handler.Handle(context.Background(), errors.New("plain"))

	assert.Equal(t, 1, logger.warns)
	assert.Equal(t, 2, logger.errors)
}
