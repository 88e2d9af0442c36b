package worker

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWithRecoverCatchesPanic(t *testing.T) {
	var recovered any

	require.NotPanics(t, func() {
		WithRecover(func(r any) { recovered = r }, func() {
			panic("boom")
		})
	})

	require.Equal(t, "boom", recovered)
}

func TestWithRecoverNoPanicDoesNotInvokeCallback(t *testing.T) {
	called := false

	WithRecover(func(r any) { called = true }, func() {})

	require.False(t, called)
}
