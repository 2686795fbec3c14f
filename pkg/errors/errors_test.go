package errors_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/RTO-Desk/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// New / Wrap
// ─────────────────────────────────────────────────────────────────────────────

func TestNew_FieldsAreSetCorrectly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		code    errors.ErrorCode
		message string
	}{
		{"internal error", errors.CodeInternal, "unexpected failure"},
		{"license not found", errors.CodeLicenseNotFound, "application 65f1c0 not found"},
		{"invalid filter", errors.CodeInvalidFilter, "unknown filter expiring-60"},
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
		})
	}
}

func TestAppError_ErrorFormat(t *testing.T) {
	t.Parallel()

	ae := errors.New(errors.CodeInvalidParam, "page must be positive")
	assert.Equal(t, "[COMMON_002] page must be positive", ae.Error())

	withDetail := ae.WithDetail("page=0")
	assert.Equal(t, "[COMMON_002] page must be positive: page=0", withDetail.Error())
	assert.Empty(t, ae.Detail, "WithDetail must not mutate the receiver")
}

func TestNewf_FormatsMessage(t *testing.T) {
	t.Parallel()

	ae := errors.Newf(errors.CodeInvalidFilter, "unknown filter %q", "expiring-60")
	assert.Equal(t, `unknown filter "expiring-60"`, ae.Message)
}

func TestWrap_NilErrReturnsNil(t *testing.T) {
	t.Parallel()

	assert.Nil(t, errors.Wrap(nil, errors.CodeInternal, "should not matter"))
}

func TestWrap_CauseChainIsPreserved(t *testing.T) {
	t.Parallel()

	root := stderrors.New("connection refused")
	ae := errors.Wrap(root, errors.CodeBackendUnavailable, "list driving licenses")

	require.NotNil(t, ae)
	assert.True(t, stderrors.Is(ae, root))
	assert.Equal(t, root, stderrors.Unwrap(ae))
}

func TestWrap_UnknownCodeKeepsOriginal(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.CodeLicenseNotFound, "missing")
	outer := errors.Wrap(inner, errors.CodeUnknown, "desk view")

	assert.Equal(t, errors.CodeLicenseNotFound, outer.Code)
}

func TestWithCause_NilReceiver(t *testing.T) {
	t.Parallel()

	var ae *errors.AppError
	assert.Nil(t, ae.WithCause(stderrors.New("x")))
	assert.Nil(t, ae.WithDetail("x"))
}

// ─────────────────────────────────────────────────────────────────────────────
// Chain inspection
// ─────────────────────────────────────────────────────────────────────────────

func TestIsCode_ThroughFmtWrapping(t *testing.T) {
	t.Parallel()

	ae := errors.New(errors.CodeStaleView, "superseded")
	wrapped := fmt.Errorf("handler: %w", ae)

	assert.True(t, errors.IsCode(wrapped, errors.CodeStaleView))
	assert.False(t, errors.IsCode(wrapped, errors.CodeInternal))
	assert.False(t, errors.IsCode(nil, errors.CodeStaleView))
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		err      error
		expected bool
	}{
		{"generic", errors.NotFound("not found"), true},
		{"license", errors.New(errors.CodeLicenseNotFound, "application missing"), true},
		{"wrapped", fmt.Errorf("ctx: %w", errors.NotFound("x")), true},
		{"other code", errors.Internal("boom"), false},
		{"plain error", stderrors.New("boom"), false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.expected, errors.IsNotFound(tc.err), tc.name)
	}
}

func TestIsValidation(t *testing.T) {
	t.Parallel()

	assert.True(t, errors.IsValidation(errors.InvalidParam("bad")))
	assert.True(t, errors.IsValidation(errors.New(errors.CodeInvalidFilter, "bad")))
	assert.False(t, errors.IsValidation(errors.Conflict("dup")))
}

func TestGetCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, errors.CodeOK, errors.GetCode(nil))
	assert.Equal(t, errors.CodeUnknown, errors.GetCode(stderrors.New("plain")))
	assert.Equal(t, errors.CodeConflict, errors.GetCode(fmt.Errorf("w: %w", errors.Conflict("c"))))
}

func TestAppError_HTTPStatus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, http.StatusBadGateway, errors.New(errors.CodeBackendUnavailable, "down").HTTPStatus())
	assert.Equal(t, http.StatusUnauthorized, errors.Unauthorized("no session").HTTPStatus())
}
