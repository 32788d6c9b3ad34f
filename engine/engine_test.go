// Copyright 2026 The ink Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package engine_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prosopo-io/ink"
	"github.com/prosopo-io/ink/codec"
	"github.com/prosopo-io/ink/dispatch"
	"github.com/prosopo-io/ink/engine"
	"github.com/prosopo-io/ink/env"
	"github.com/prosopo-io/ink/internal/contracts/flipper"
	"github.com/prosopo-io/ink/internal/contracts/ledger"
	"github.com/prosopo-io/ink/internal/snapshot"
	"github.com/prosopo-io/ink/primitives"
	"github.com/prosopo-io/ink/storage"
	"github.com/prosopo-io/ink/storage/hashmap"
)

func TestEngine_Flipper(t *testing.T) {
	var logs bytes.Buffer
	store := env.NewMemoryStore()
	e := engine.New(store, engine.WithLogger(zerolog.New(&logs).Level(zerolog.DebugLevel)))
	require.Equal(t, env.StorageHost(store), e.Store())

	c, err := flipper.New()
	require.NoError(t, err)

	in, err := c.Input(dispatch.KindConstructor, "new", flipper.NewArgs{InitValue: false})
	require.NoError(t, err)
	out := e.Instantiate(c, in, env.Balance{})
	require.Equal(t, engine.StatusSuccess, out.Status)
	require.Equal(t, env.ReturnCode(0), out.ReturnCode())
	require.Equal(t, 1, out.Writes)
	require.NotEqual(t, uuid.Nil, out.CallID)
	require.Equal(t, 1, store.Len())

	flip := flipper.FlipSelector.Input(nil)
	out = e.Call(c, flip, env.Balance{})
	require.Equal(t, engine.StatusSuccess, out.Status)
	require.Equal(t, []byte{}, out.Output)

	paid := e.Call(c, flip, env.NewBalance(1))
	require.Equal(t, engine.StatusTrapped, paid.Status)
	require.ErrorIs(t, paid.Err, dispatch.ErrPaidUnpayableMessage)
	require.Equal(t, env.CalleeTrapped.ReturnCode(), paid.ReturnCode())
	require.NotEqual(t, out.CallID, paid.CallID)

	get, err := c.Input(dispatch.KindMessage, "get", nil)
	require.NoError(t, err)
	out = e.Call(c, get, env.Balance{})
	require.Equal(t, engine.StatusSuccess, out.Status)
	require.Equal(t, 0, out.Writes)
	var v bool
	require.NoError(t, codec.Unmarshal(out.Output, &v))
	require.True(t, v)

	require.Contains(t, logs.String(), `"call_id":"`+paid.CallID.String()+`"`)
	require.Contains(t, logs.String(), `"status":"trapped"`)
}

// counter writes through its map before deciding whether to revert, so
// the engine has to drop those writes.
type counter struct {
	Hits *hashmap.Map[string, uint32]
}

func (c *counter) Footprint() uint64 { return 1 }
func (c *counter) AllocateSpread(h env.StorageHost, p *storage.KeyPtr) error {
	return storage.AllocateFields(h, p, c.Hits)
}
func (c *counter) PullSpread(h env.StorageHost, p *storage.KeyPtr) error {
	return storage.PullFields(h, p, c.Hits)
}
func (c *counter) PushSpread(h env.StorageHost, p *storage.KeyPtr) error {
	return storage.PushFields(h, p, c.Hits)
}
func (c *counter) ClearSpread(h env.StorageHost, p *storage.KeyPtr) error {
	return storage.ClearFields(h, p, c.Hits)
}

type hitArgs struct {
	_      struct{} `cbor:",toarray"`
	Key    string
	Revert bool
	Trap   bool
	Panic  bool
}

var errTrap = errors.New("trap requested")

func newCounter(t *testing.T) ink.Executable {
	c, err := ink.New("counter", func() *counter {
		return &counter{Hits: hashmap.New[string, uint32]()}
	}, []dispatch.Entry[*counter]{
		dispatch.Constructor("new", func(*dispatch.Context, *counter, dispatch.NoArgs) error { return nil }),
		dispatch.Message("hit", func(_ *dispatch.Context, c *counter, a hitArgs) (uint32, error) {
			n, _, err := c.Hits.Get(a.Key)
			if err != nil {
				return 0, err
			}
			if err := c.Hits.Insert(a.Key, n+1); err != nil {
				return 0, err
			}
			switch {
			case a.Revert:
				return 0, dispatch.Revert(n + 1)
			case a.Trap:
				return 0, errTrap
			case a.Panic:
				panic("boom")
			}
			return n + 1, nil
		}, dispatch.Mutates()),
	})
	require.NoError(t, err)
	return c
}

func TestEngine_FrameIsolation(t *testing.T) {
	store := env.NewMemoryStore()
	e := engine.New(store)
	c := newCounter(t)

	in, err := c.Input(dispatch.KindConstructor, "new", nil)
	require.NoError(t, err)
	require.Equal(t, engine.StatusSuccess, e.Instantiate(c, in, env.Balance{}).Status)

	hit := func(a hitArgs) engine.Outcome {
		in, err := c.Input(dispatch.KindMessage, "hit", a)
		require.NoError(t, err)
		return e.Call(c, in, env.Balance{})
	}

	out := hit(hitArgs{Key: "a"})
	require.Equal(t, engine.StatusSuccess, out.Status)
	// the entry and the map length
	require.Equal(t, 2, out.Writes)
	snapshot := store.Entries()

	out = hit(hitArgs{Key: "a", Revert: true})
	require.Equal(t, engine.StatusReverted, out.Status)
	require.Equal(t, env.CalleeReverted.ReturnCode(), out.ReturnCode())
	var n uint32
	require.NoError(t, codec.Unmarshal(out.Output, &n))
	require.Equal(t, uint32(2), n)
	require.Equal(t, snapshot, store.Entries())

	out = hit(hitArgs{Key: "b", Trap: true})
	require.Equal(t, engine.StatusTrapped, out.Status)
	require.ErrorIs(t, out.Err, errTrap)
	require.Nil(t, out.Output)
	require.Equal(t, snapshot, store.Entries())

	out = hit(hitArgs{Key: "b", Panic: true})
	require.Equal(t, engine.StatusTrapped, out.Status)
	require.ErrorContains(t, out.Err, "panicked")
	require.Equal(t, snapshot, store.Entries())

	out = hit(hitArgs{Key: "a"})
	require.Equal(t, engine.StatusSuccess, out.Status)
	require.NoError(t, codec.Unmarshal(out.Output, &n))
	require.Equal(t, uint32(2), n)
}

type silent struct{ ink.Executable }

func (silent) Call(env.StorageHost, env.CallHost) error { return nil }

func TestEngine_NoReturn(t *testing.T) {
	e := engine.New(env.NewMemoryStore())
	out := e.Call(silent{newCounter(t)}, []byte{1, 2, 3, 4}, env.Balance{})
	require.Equal(t, engine.StatusTrapped, out.Status)
	require.Error(t, out.Err)
}

type failingStore struct{ *env.MemoryStore }

func (failingStore) Set(primitives.Key, []byte) error { return errors.New("disk full") }

func TestEngine_CommitFailure(t *testing.T) {
	e := engine.New(failingStore{env.NewMemoryStore()})
	c := newCounter(t)
	in, err := c.Input(dispatch.KindConstructor, "new", nil)
	require.NoError(t, err)
	out := e.Instantiate(c, in, env.Balance{})
	require.Equal(t, engine.StatusTrapped, out.Status)
	require.ErrorContains(t, out.Err, "disk full")
	require.Equal(t, 0, out.Writes)
}

func TestEngine_Redeploy(t *testing.T) {
	store := env.NewMemoryStore()
	e := engine.New(store)
	c, err := ledger.New()
	require.NoError(t, err)

	deploy := func(owner string, supply uint64) engine.Outcome {
		in, err := c.Input(dispatch.KindConstructor, "new", ledger.NewArgs{Owner: owner, Supply: supply})
		require.NoError(t, err)
		return e.Instantiate(c, in, env.Balance{})
	}
	call := func(name string, args any) engine.Outcome {
		in, err := c.Input(dispatch.KindMessage, name, args)
		require.NoError(t, err)
		return e.Call(c, in, env.Balance{})
	}
	holders := func() uint32 {
		out := call("holders", nil)
		require.Equal(t, engine.StatusSuccess, out.Status, "%v", out.Err)
		var n uint32
		require.NoError(t, codec.Unmarshal(out.Output, &n))
		return n
	}

	require.Equal(t, engine.StatusSuccess, deploy("alice", 100).Status)
	before := store.Entries()

	out := deploy("bob", 5)
	require.Equal(t, engine.StatusTrapped, out.Status)
	require.ErrorIs(t, out.Err, dispatch.ErrAlreadyInstantiated)
	require.Equal(t, before, store.Entries())
	require.Equal(t, uint32(1), holders())

	out = call("close", ledger.AccountArgs{Account: "alice"})
	require.Equal(t, engine.StatusSuccess, out.Status, "%v", out.Err)
	require.Equal(t, uint32(0), holders())

	out = call("close", ledger.AccountArgs{Account: "bob"})
	require.Equal(t, engine.StatusReverted, out.Status)
	require.Equal(t, uint32(0), holders())
}

// bulk writes a small value and then one no snapshot can hold.
type bulk struct{ ink.Executable }

func (bulk) Call(host env.StorageHost, call env.CallHost) error {
	if err := host.Set(primitives.Key{1}, []byte("small")); err != nil {
		return err
	}
	if err := host.Set(primitives.Key{2}, make([]byte, 1<<24+1)); err != nil {
		return err
	}
	call.ReturnValue(0, nil)
	return nil
}

func TestEngine_CommitIsAtomic(t *testing.T) {
	host := snapshot.NewHost(nil)
	require.NoError(t, host.Set(primitives.Key{1}, []byte("before")))
	e := engine.New(host)

	out := e.Call(bulk{newCounter(t)}, []byte{1, 2, 3, 4}, env.Balance{})
	require.Equal(t, engine.StatusTrapped, out.Status)
	require.ErrorIs(t, out.Err, snapshot.ErrValueTooLarge)
	require.Equal(t, 0, out.Writes)

	got, err := host.Get(primitives.Key{1})
	require.NoError(t, err)
	require.Equal(t, []byte("before"), got)
	_, err = host.Get(primitives.Key{2})
	require.ErrorIs(t, err, env.ErrKeyNotFound)
}

// pickyStore refuses writes to one key only, and cannot say so in advance.
type pickyStore struct {
	*env.MemoryStore
	bad primitives.Key
}

func (s pickyStore) Set(k primitives.Key, v []byte) error {
	if k == s.bad {
		return errors.New("disk full")
	}
	return s.MemoryStore.Set(k, v)
}

func TestEngine_CommitRollsBack(t *testing.T) {
	store := pickyStore{MemoryStore: env.NewMemoryStore(), bad: primitives.Key{2}}
	e := engine.New(store)

	out := e.Call(bulk{newCounter(t)}, []byte{1, 2, 3, 4}, env.Balance{})
	require.Equal(t, engine.StatusTrapped, out.Status)
	require.ErrorContains(t, out.Err, "disk full")
	require.Equal(t, 0, store.Len())
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "success", engine.StatusSuccess.String())
	assert.Equal(t, "reverted", engine.StatusReverted.String())
	assert.Equal(t, "trapped", engine.StatusTrapped.String())
	assert.Equal(t, "Status(9)", engine.Status(9).String())
}
