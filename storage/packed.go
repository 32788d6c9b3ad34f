// Copyright 2026 The ink Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package storage

import (
	"errors"
	"fmt"

	"github.com/prosopo-io/ink/codec"
	"github.com/prosopo-io/ink/env"
	"github.com/prosopo-io/ink/primitives"
)

// PullPackedOpt loads the value stored in full at key at.  ok is false if
// the slot is empty.
func PullPackedOpt[T any](host env.StorageHost, at primitives.Key) (v T, ok bool, err error) {
	b, err := host.Get(at)
	if errors.Is(err, env.ErrKeyNotFound) {
		return v, false, nil
	} else if err != nil {
		return v, false, fmt.Errorf("host.Get(%s): %w", at, err)
	}
	if err := codec.Unmarshal(b, &v); err != nil {
		return v, false, fmt.Errorf("decode %s: %w", at, err)
	}
	return v, true, nil
}

// PullPacked is PullPackedOpt for slots that must be occupied: an empty
// slot is an error wrapping env.ErrKeyNotFound.
func PullPacked[T any](host env.StorageHost, at primitives.Key) (T, error) {
	v, ok, err := PullPackedOpt[T](host, at)
	if err != nil {
		return v, err
	}
	if !ok {
		return v, fmt.Errorf("pull packed %s: %w", at, env.ErrKeyNotFound)
	}
	return v, nil
}

// PushPacked stores the full encoding of v at key at.
func PushPacked[T any](host env.StorageHost, at primitives.Key, v T) error {
	b, err := codec.Marshal(v)
	if err != nil {
		return err
	}
	if err := host.Set(at, b); err != nil {
		return fmt.Errorf("host.Set(%s): %w", at, err)
	}
	return nil
}

// ClearPacked empties the slot at key at.
func ClearPacked(host env.StorageHost, at primitives.Key) error {
	if err := host.Clear(at); err != nil {
		return fmt.Errorf("host.Clear(%s): %w", at, err)
	}
	return nil
}
