// Copyright 2026 The ink Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Command gen-testdata writes a ledger snapshot with many funded
// accounts, for exercising snapshot lookups at scale.
package main

import (
	"crypto/hmac"
	crand "crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/prosopo-io/ink/dispatch"
	"github.com/prosopo-io/ink/engine"
	"github.com/prosopo-io/ink/env"
	"github.com/prosopo-io/ink/internal/contracts/ledger"
	"github.com/prosopo-io/ink/internal/snapshot"
)

const (
	owner     = "treasury"
	prefix    = "acct_"
	suffixLen = 16
	hmacKey   = "d259c7f656caf7f1"
)

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		var seedBytes [8]byte
		_, _ = crand.Read(seedBytes[:])
		seed = int64(binary.LittleEndian.Uint64(seedBytes[:]))
	}
	return rand.New(rand.NewSource(seed))
}

func main() {
	out := flag.String("out", "ledger.snap", "snapshot to write")
	accounts := flag.Int("accounts", 100000, "number of accounts to fund")
	seed := flag.Int64("seed", 0, "random seed, 0 for a random one")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Str("app", "gen-testdata").Logger()

	if err := generate(*out, *accounts, newRand(*seed), logger); err != nil {
		fmt.Fprintf(os.Stderr, "gen-testdata: %v\n", err)
		os.Exit(1)
	}
}

func generate(path string, accounts int, rng *rand.Rand, logger zerolog.Logger) error {
	c, err := ledger.New()
	if err != nil {
		return err
	}
	host := snapshot.NewHost(nil)
	e := engine.New(host)

	exec := func(kind dispatch.Kind, name string, args any) error {
		in, err := c.Input(kind, name, args)
		if err != nil {
			return err
		}
		var o engine.Outcome
		if kind == dispatch.KindConstructor {
			o = e.Instantiate(c, in, env.Balance{})
		} else {
			o = e.Call(c, in, env.Balance{})
		}
		if o.Status != engine.StatusSuccess {
			return fmt.Errorf("%s %s: %s: %v", kind, name, o.Status, o.Err)
		}
		return nil
	}

	if err := exec(dispatch.KindConstructor, "new", ledger.NewArgs{Owner: owner}); err != nil {
		return err
	}

	h := hmac.New(sha256.New, []byte(hmacKey))
	for i := 0; i < accounts; i++ {
		var buf [suffixLen / 2]byte
		if _, err := rng.Read(buf[:]); err != nil {
			return err
		}
		h.Reset()
		h.Write([]byte(fmt.Sprintf("%s%x", prefix, buf)))
		account := hex.EncodeToString(h.Sum(nil))

		mint := ledger.MintArgs{Caller: owner, To: account, Amount: uint64(rng.Intn(1_000_000) + 1)}
		if err := exec(dispatch.KindMessage, "mint", mint); err != nil {
			return err
		}
		if (i+1)%10000 == 0 {
			logger.Info().Int("accounts", i+1).Msg("funded")
		}
	}

	t, err := host.Save(path, snapshot.WithBuilderLogger(logger))
	if err != nil {
		return err
	}
	logger.Info().Str("path", t.Path()).Int("records", t.Len()).Msg("wrote snapshot")
	return t.Close()
}
