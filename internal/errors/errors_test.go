package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"gopower/domain/core"

	"github.com/stretchr/testify/assert"
)

func TestGetCodeClassifiesDomainErrors(t *testing.T) {
	assert.Equal(t, CodeInvalidParameters, GetCode(core.NewInvalidParametersError("x")))
	assert.Equal(t, CodeMissingParameter, GetCode(core.NewMissingParameterError("baseline_mean", "one-sample dichotomous")))
	assert.Equal(t, CodeDomainError, GetCode(fmt.Errorf("two-sample: %w", core.NewDomainError("zero effect"))))
	assert.Equal(t, CodeNotFound, GetCode(core.ErrPlanNotFound))
	assert.Equal(t, CodeInvalidInput, GetCode(core.ErrNotBinary))
	assert.Equal(t, CodeInternalError, GetCode(stderrors.New("boom")))
}

func TestWrapKeepsClassification(t *testing.T) {
	err := Wrap(core.NewDomainError("alpha must lie in (0,1)"), "failed to build engine")

	assert.True(t, IsAppError(err))
	assert.Equal(t, CodeDomainError, GetCode(err))
	assert.True(t, core.IsDomainError(err))
	assert.Contains(t, err.Error(), "failed to build engine")
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, "ignored"))
	assert.NoError(t, Wrapf(nil, "ignored %d", 1))
	assert.NoError(t, WithCode(CodeNotFound, nil))
}

func TestWithCode(t *testing.T) {
	err := WithCode(CodeDatabaseError, stderrors.New("connection refused"))
	assert.Equal(t, CodeDatabaseError, GetCode(err))

	err = WithCode(CodeNotFound, InvalidInput("bad"))
	assert.Equal(t, CodeNotFound, GetCode(err))
	assert.Equal(t, "bad", err.Error())
}
