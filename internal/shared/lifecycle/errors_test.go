package lifecycle

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransitionErrorUnwrapsToSentinel(t *testing.T) {
	err := fmt.Errorf("approve: %w", &TransitionError{Entity: "line item", ID: "REQ1#1", From: "approved", Action: "approve"})

	require.ErrorIs(t, err, ErrInvalidTransition)
	te, ok := AsTransition(err)
	require.True(t, ok)
	require.Equal(t, "approved", te.From)
	require.Contains(t, err.Error(), `in status "approved"`)
}

func TestStatusErrorUnwrapsToSentinel(t *testing.T) {
	err := &StatusError{Field: "delivery status", Value: "teleported"}
	require.ErrorIs(t, err, ErrInvalidStatus)
	require.Equal(t, `unknown delivery status "teleported"`, err.Error())
}
