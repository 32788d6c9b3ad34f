// Copyright 2026 The ink Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package flipper

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/prosopo-io/ink/codec"
	"github.com/prosopo-io/ink/dispatch"
	"github.com/prosopo-io/ink/env"
	"github.com/prosopo-io/ink/storage"
)

func stored(t *testing.T, host env.StorageHost) bool {
	var f Flipper
	require.NoError(t, storage.PullSpreadRoot(host, storage.RootKey, &f))
	return f.Value.Get()
}

func TestFlipper(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	host := env.NewMemoryStore()

	in, err := c.Input(dispatch.KindConstructor, "new", NewArgs{InitValue: false})
	require.NoError(t, err)
	require.NoError(t, c.Instantiate(host, env.NewCall(in, env.Balance{})))
	require.False(t, stored(t, host))

	flip := FlipSelector.Input(nil)
	require.NoError(t, c.Call(host, env.NewCall(flip, env.Balance{})))
	require.True(t, stored(t, host))

	err = c.Call(host, env.NewCall(flip, env.NewBalance(1)))
	require.ErrorIs(t, err, dispatch.ErrPaidUnpayableMessage)
	require.True(t, stored(t, host))

	in, err = c.Input(dispatch.KindMessage, "get", nil)
	require.NoError(t, err)
	call := env.NewCall(in, env.Balance{})
	require.NoError(t, c.Call(host, call))
	_, out, ok := call.Returned()
	require.True(t, ok)
	var got bool
	require.NoError(t, codec.Unmarshal(out, &got))
	require.True(t, got)
}

func TestFlipper_Handlers(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	require.Equal(t, Name, c.Name())

	handlers := c.Handlers()
	require.Len(t, handlers, 4)
	var flip bool
	for _, h := range handlers {
		if h.Name == "flip" {
			flip = true
			require.Equal(t, FlipSelector, h.Selector)
			require.True(t, h.Mutates)
			require.False(t, h.Payable)
		}
	}
	require.True(t, flip)

	_, err = c.Input(dispatch.KindMessage, "nope", nil)
	require.Error(t, err)
}
