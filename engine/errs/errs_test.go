package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissing_NamesResourceAndField(t *testing.T) {
	err := Missing(KindBindGroup, FieldLayout)

	assert.ErrorIs(t, err, ErrMissingField)
	assert.Contains(t, err.Error(), "Bind group")
	assert.Contains(t, err.Error(), "layout")

	var mf *MissingFieldError
	require.ErrorAs(t, fmt.Errorf("build: %w", err), &mf)
	assert.Equal(t, FieldLayout, mf.Field)
}

func TestCheckCapacity_Boundaries(t *testing.T) {
	assert.NoError(t, CheckCapacity("b", 0, 64, 64))
	assert.NoError(t, CheckCapacity("b", 60, 4, 64))
	assert.NoError(t, CheckCapacity("b", 64, 0, 64))
	assert.ErrorIs(t, CheckCapacity("b", 61, 4, 64), ErrCapacity)
	assert.ErrorIs(t, CheckCapacity("b", 65, 0, 64), ErrCapacity)
	// overflow of offset+length must not wrap around
	assert.ErrorIs(t, CheckCapacity("b", 8, ^uint64(0), 64), ErrCapacity)
}

func TestCheckAlignment(t *testing.T) {
	assert.NoError(t, CheckAlignment("b", 0, 0, 4))
	assert.NoError(t, CheckAlignment("b", 8, 12, 4))

	err := CheckAlignment("b", 2, 4, 4)
	var unaligned *AlignmentError
	require.ErrorAs(t, err, &unaligned)
	assert.Equal(t, uint64(2), unaligned.Offset)
	assert.ErrorIs(t, CheckAlignment("b", 4, 3, 4), ErrAlignment)
}

func TestMapError_MatchesBoth(t *testing.T) {
	cause := errors.New("device lost")
	err := &MapError{Label: "Buffer: 1", Err: cause}

	assert.ErrorIs(t, err, ErrMap)
	assert.ErrorIs(t, err, cause)
}

func TestTransientAndFatal(t *testing.T) {
	assert.True(t, IsTransient(fmt.Errorf("acquire: %w", ErrSurfaceLost)))
	assert.True(t, IsTransient(ErrSurfaceTimeout))
	assert.False(t, IsTransient(ErrOutOfMemory))
	assert.True(t, IsFatal(fmt.Errorf("acquire: %w", ErrOutOfMemory)))
	assert.False(t, IsFatal(ErrSurfaceLost))
}

func TestNotFound_NameAndID(t *testing.T) {
	assert.Equal(t, "Buffer with id 7 not found", NotFound(KindBuffer, 7).Error())
	assert.Equal(t, `Uniform "camera" not found`, NotFoundName(KindUniform, "camera").Error())
	assert.ErrorIs(t, NotFound(KindModel, 1), ErrNotFound)
}
