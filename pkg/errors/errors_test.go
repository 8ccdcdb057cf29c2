// Package errors_test provides unit tests for the AppError type, factory
// functions, and error-chain helpers defined in pkg/errors/errors.go.
package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c-nielson/CS534-Final-Project/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// TestNew
// ─────────────────────────────────────────────────────────────────────────────

func TestNew_FieldsAreSetCorrectly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		code    errors.ErrorCode
		message string
	}{
		{"internal error", errors.CodeInternal, "unexpected failure"},
		{"unknown element", errors.ErrCodeElementUnknown, "unknown atomic symbol"},
		{"index range", errors.ErrCodeAtomIndexOutOfRange, "atom index out of range"},
		{"invalid param", errors.CodeInvalidParam, "neighbors must be positive"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ae := errors.New(tc.code, tc.message)

			require.NotNil(t, ae)
			assert.Equal(t, tc.code, ae.Code)
			assert.Equal(t, tc.message, ae.Message)
			assert.Empty(t, ae.Detail, "Detail should be empty for bare New()")
			assert.Nil(t, ae.Cause, "Cause should be nil for bare New()")
			assert.NotEmpty(t, ae.Stack)
		})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// TestWrap
// ─────────────────────────────────────────────────────────────────────────────

func TestWrap_NilErrReturnsNil(t *testing.T) {
	t.Parallel()

	assert.Nil(t, errors.Wrap(nil, errors.CodeInternal, "should not matter"))
}

func TestWrap_CauseChainIsPreserved(t *testing.T) {
	t.Parallel()

	root := stderrors.New("open dsgdb9nsd_000001.xyz: no such file")
	wrapped := errors.Wrap(root, errors.ErrCodeStructureReadFailed, "read structure")

	require.NotNil(t, wrapped)
	assert.Equal(t, errors.ErrCodeStructureReadFailed, wrapped.Code)
	assert.Equal(t, root, wrapped.Cause)
	assert.Equal(t, root, stderrors.Unwrap(wrapped))
}

func TestWrap_PreservesOriginalCodeWhenCodeUnknown(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.ErrCodeElementUnknown, "unknown atomic symbol")
	outer := errors.Wrap(inner, errors.CodeUnknown, "adding context")

	require.NotNil(t, outer)
	assert.Equal(t, errors.ErrCodeElementUnknown, outer.Code,
		"Wrap with CodeUnknown should inherit the inner AppError's code")
}

func TestWrap_OverridesCodeWhenExplicit(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.ErrCodeElementUnknown, "unknown atomic symbol")
	outer := errors.Wrap(inner, errors.ErrCodeTaskFailed, "file task failed")

	assert.Equal(t, errors.ErrCodeTaskFailed, outer.Code)
	assert.True(t, errors.IsCode(outer, errors.ErrCodeElementUnknown))
}

// ─────────────────────────────────────────────────────────────────────────────
// TestError_Method
// ─────────────────────────────────────────────────────────────────────────────

func TestError_Format(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  *errors.AppError
		want string
	}{
		{
			name: "message only",
			err:  errors.New(errors.ErrCodeStructureEmpty, "no atoms"),
			want: "[XYZ_003] no atoms",
		},
		{
			name: "with detail",
			err:  errors.New(errors.ErrCodeElementUnknown, "unknown atomic symbol").WithDetail("symbol=Xx"),
			want: "[ELEM_001] unknown atomic symbol: symbol=Xx",
		},
		{
			name: "with cause",
			err:  errors.Wrap(stderrors.New("boom"), errors.ErrCodeOutputWriteFailed, "write csv"),
			want: "[OUT_001] write csv: boom",
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, tc.err.Error())
		})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Builders
// ─────────────────────────────────────────────────────────────────────────────

func TestWithDetail_SetsDetailOnCopy(t *testing.T) {
	t.Parallel()

	original := errors.New(errors.CodeNotFound, "resource missing")
	detailed := original.WithDetailf("file=%s", "a.xyz")

	assert.Empty(t, original.Detail, "WithDetail must not mutate the original")
	assert.Equal(t, "file=a.xyz", detailed.Detail)
	assert.Equal(t, original.Code, detailed.Code)
}

func TestWithCause_NilReceiver(t *testing.T) {
	t.Parallel()

	var ae *errors.AppError
	assert.Nil(t, ae.WithCause(stderrors.New("x")))
	assert.Nil(t, ae.WithDetail("x"))
}

// ─────────────────────────────────────────────────────────────────────────────
// Chain helpers
// ─────────────────────────────────────────────────────────────────────────────

func TestGetCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, errors.CodeOK, errors.GetCode(nil))
	assert.Equal(t, errors.CodeUnknown, errors.GetCode(stderrors.New("plain")))
	assert.Equal(t, errors.ErrCodeTaskFailed,
		errors.GetCode(fmt.Errorf("ctx: %w", errors.New(errors.ErrCodeTaskFailed, "x"))))
}

func TestRootCode_ReturnsInnermost(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.ErrCodeElementUnknown, "unknown atomic symbol")
	mid := errors.Wrap(inner, errors.ErrCodeStructureParseFailed, "parse")
	outer := errors.Wrap(mid, errors.ErrCodeTaskFailed, "task")

	assert.Equal(t, errors.ErrCodeElementUnknown, errors.RootCode(outer))
	assert.Equal(t, errors.CodeUnknown, errors.RootCode(stderrors.New("plain")))
}

func TestIsCategory(t *testing.T) {
	t.Parallel()

	err := errors.Wrap(errors.New(errors.ErrCodeElementUnknown, "x"), errors.ErrCodeTaskFailed, "task")
	assert.True(t, errors.IsCategory(err, errors.CategoryLookup))
	assert.True(t, errors.IsCategory(err, errors.CategoryScheduling))
	assert.False(t, errors.IsCategory(err, errors.CategoryIndexRange))
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("open: %w", errors.NotFound("file not found"))
	assert.True(t, errors.IsNotFound(err))
	assert.False(t, errors.IsNotFound(errors.Internal("boom")))
	assert.False(t, errors.IsNotFound(nil))
}
