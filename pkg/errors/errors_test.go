package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageError_ErrorFormats(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name string
		err  *StageError
		want string
	}{
		{
			name: "factory with registration and cause",
			err:  NewFactoryError("db", cause),
			want: "FACTORY [db]: connection refused",
		},
		{
			name: "business with cause only",
			err:  NewBusinessError(cause),
			want: "BUSINESS: connection refused",
		},
		{
			name: "config with message only",
			err:  NewConfigError("no factory registered"),
			want: "CONFIG: no factory registered",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestStageError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewPostProcessError("metrics", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, cause, err.Unwrap())
}

func TestStageHelpers(t *testing.T) {
	cause := errors.New("boom")

	assert.True(t, IsFactory(NewFactoryError("db", cause)))
	assert.True(t, IsPostProcess(NewPostProcessError("db", cause)))
	assert.True(t, IsBusiness(NewBusinessError(cause)))
	assert.True(t, IsConfig(NewConfigError("bad options")))

	assert.False(t, IsFactory(NewBusinessError(cause)))
	assert.False(t, IsBusiness(nil))
	assert.False(t, IsFactory(cause))
}

func TestStageHelpers_SeeThroughWrapping(t *testing.T) {
	inner := NewFactoryError("db", errors.New("boom"))
	wrapped := fmt.Errorf("invocation failed: %w", inner)

	assert.True(t, IsFactory(wrapped))
	require.NotNil(t, GetStageError(wrapped))
	assert.Equal(t, "db", GetStageError(wrapped).Registration)
}

func TestPanicError(t *testing.T) {
	err := NewPanicError("nil dereference")

	assert.Contains(t, err.Error(), "nil dereference")
	assert.NotEmpty(t, err.StackTrace)
	assert.True(t, IsPanic(err))
	assert.False(t, IsPanic(errors.New("plain")))
}

func TestPanicError_InsideStageError(t *testing.T) {
	err := NewFactoryError("db", NewPanicError("boom"))

	assert.True(t, IsFactory(err))
	assert.True(t, IsPanic(err))
}
