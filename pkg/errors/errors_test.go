package errors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/brookside/clinic-portal/pkg/errors"
)

func TestKindOf(t *testing.T) {
	err := apperrors.NotFound("order")
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
	assert.False(t, apperrors.IsKind(err, apperrors.KindForbidden))

	assert.False(t, apperrors.IsKind(nil, apperrors.KindNotFound))
	assert.False(t, apperrors.IsKind(errors.New("plain"), apperrors.KindNotFound))
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("loading order: %w", apperrors.StaleState("order"))
	assert.True(t, apperrors.IsKind(err, apperrors.KindStaleState))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := apperrors.Unavailable(cause)
	assert.ErrorIs(t, err, cause)
	assert.True(t, apperrors.IsKind(err, apperrors.KindUnavailable))
}
