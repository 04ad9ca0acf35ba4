package errclass_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/DEVBOX10/microsoft-scalar/pkg/errclass"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalarError_Error(t *testing.T) {
	err := errclass.ErrLockConflict.WithMessage("object cache is locked")
	assert.Equal(t, "E_LOCK_CONFLICT: object cache is locked", err.Error())
	assert.Equal(t, "E_STOPPING", errclass.ErrStopping.Error())
}

func TestScalarError_Is(t *testing.T) {
	err := errclass.ErrStepUnknown.WithMessagef("no step named %q", "gc")
	require.True(t, errors.Is(err, errclass.ErrStepUnknown))
	require.False(t, errors.Is(err, errclass.ErrLockConflict))
}

func TestScalarError_IsThroughWrap(t *testing.T) {
	err := fmt.Errorf("run maintenance: %w", errclass.ErrNotEnlistment.WithMessage("/tmp"))
	assert.ErrorIs(t, err, errclass.ErrNotEnlistment)
}

func TestScalarError_WithMessageDoesNotMutate(t *testing.T) {
	_ = errclass.ErrConfigInvalid.WithMessage("bad")
	assert.Empty(t, errclass.ErrConfigInvalid.Message)
}
