package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/patentdesk/pkg/errors"
)

func TestNew_FieldsAreSetCorrectly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		code    errors.ErrorCode
		message string
	}{
		{"internal error", errors.ErrCodeInternal, "unexpected failure"},
		{"not found", errors.ErrCodePatentNotFound, "patent not found"},
		{"invalid param", errors.ErrCodeValidation, "title is required"},
		{"duplicate email", errors.ErrCodeDuplicateEmail, "email already exists"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ae := errors.New(tc.code, tc.message)

			require.NotNil(t, ae)
			assert.Equal(t, tc.code, ae.Code)
			assert.Equal(t, tc.message, ae.Message)
			assert.Empty(t, ae.Detail)
			assert.Nil(t, ae.Cause)
			assert.NotEmpty(t, ae.Stack)
		})
	}
}

func TestAppError_ErrorFormat(t *testing.T) {
	ae := errors.New(errors.ErrCodePatentNotFound, "patent not found")
	assert.Equal(t, "[PAT_001] patent not found", ae.Error())

	withDetail := ae.WithDetail("id=42")
	assert.Equal(t, "[PAT_001] patent not found: id=42", withDetail.Error())
	assert.Empty(t, ae.Detail, "WithDetail must not mutate the receiver")

	wrapped := errors.Wrap(fmt.Errorf("boom"), errors.ErrCodeDatabaseError, "query failed")
	assert.Equal(t, "[COMMON_012] query failed: boom", wrapped.Error())
}

func TestWrap_NilErrReturnsNil(t *testing.T) {
	t.Parallel()

	result := errors.Wrap(nil, errors.ErrCodeInternal, "should not matter")
	assert.Nil(t, result)
}

func TestWrap_CauseChainIsPreserved(t *testing.T) {
	t.Parallel()

	root := stderrors.New("connection refused")
	ae := errors.Wrap(root, errors.ErrCodeDatabaseError, "failed to query")

	require.NotNil(t, ae)
	assert.True(t, stderrors.Is(ae, root))
	assert.Equal(t, root, stderrors.Unwrap(ae))
}

func TestWrap_UnknownCodeKeepsOriginal(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.ErrCodeDocumentNotFound, "document not found")
	outer := errors.Wrap(inner, errors.CodeUnknown, "delete document")

	assert.Equal(t, errors.ErrCodeDocumentNotFound, outer.Code)
}

func TestIsCode_TraversesChain(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.ErrCodePatentNotFound, "patent not found")
	outer := fmt.Errorf("load patent: %w", inner)

	assert.True(t, errors.IsCode(outer, errors.ErrCodePatentNotFound))
	assert.False(t, errors.IsCode(outer, errors.ErrCodeInternal))
	assert.False(t, errors.IsCode(nil, errors.ErrCodeInternal))
}

func TestGetCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, errors.CodeOK, errors.GetCode(nil))
	assert.Equal(t, errors.CodeUnknown, errors.GetCode(stderrors.New("plain")))
	assert.Equal(t, errors.ErrCodeUploadFailed, errors.GetCode(errors.New(errors.ErrCodeUploadFailed, "x")))
}

func TestPredicates(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"patent not found", errors.New(errors.ErrCodePatentNotFound, "x"), errors.IsNotFound, true},
		{"document not found", errors.New(errors.ErrCodeDocumentNotFound, "x"), errors.IsNotFound, true},
		{"generic not found", errors.NotFound("x"), errors.IsNotFound, true},
		{"internal is not not-found", errors.Internal("x"), errors.IsNotFound, false},
		{"status invalid is validation", errors.New(errors.ErrCodePatentStatusInvalid, "x"), errors.IsValidation, true},
		{"invalid param is validation", errors.InvalidParam("x"), errors.IsValidation, true},
		{"duplicate email is conflict", errors.New(errors.ErrCodeDuplicateEmail, "x"), errors.IsConflict, true},
		{"invalid credentials is unauthorized", errors.New(errors.ErrCodeInvalidCredentials, "x"), errors.IsUnauthorized, true},
		{"forbidden", errors.Forbidden("x"), errors.IsForbidden, true},
		{"plain error", stderrors.New("x"), errors.IsNotFound, false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, tc.check(tc.err))
		})
	}
}

func TestWithCause_NilReceiver(t *testing.T) {
	var ae *errors.AppError
	assert.Nil(t, ae.WithCause(stderrors.New("x")))
	assert.Nil(t, ae.WithDetail("x"))
}

func TestAppError_HTTPStatus(t *testing.T) {
	assert.Equal(t, 404, errors.New(errors.ErrCodePatentNotFound, "x").HTTPStatus())
	assert.Equal(t, 502, errors.New(errors.ErrCodeAnalysisFailed, "x").HTTPStatus())
}
