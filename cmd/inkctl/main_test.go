// Copyright 2026 The ink Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/prosopo-io/ink/dispatch"
	"github.com/prosopo-io/ink/internal/contracts/flipper"
)

func runOK(t *testing.T, args ...string) string {
	t.Helper()
	var stdout, stderr bytes.Buffer
	require.NoError(t, run(args, &stdout, &stderr), "stderr: %s", stderr.String())
	return stdout.String()
}

func field(t *testing.T, out, name string) string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		if k, v, ok := strings.Cut(line, "\t"); ok && k == name {
			return v
		}
	}
	t.Fatalf("no %s in output:\n%s", name, out)
	return ""
}

func TestRun_Selector(t *testing.T) {
	out := runOK(t, "selector", "-namespace", "Token", "transfer")
	want := dispatch.SelectorFor("Token::transfer").String() + "\tToken::transfer\n"
	require.Equal(t, want, out)
}

func TestRun_Handlers(t *testing.T) {
	out := runOK(t, "handlers", "-contract", "flipper")
	require.Contains(t, out, flipper.FlipSelector.String())
	require.Contains(t, out, "mutates")

	var stdout, stderr bytes.Buffer
	require.Error(t, run([]string{"handlers", "-contract", "nope"}, &stdout, &stderr))
}

func TestRun_Flipper(t *testing.T) {
	store := filepath.Join(t.TempDir(), "flipper.snap")

	// new(false)
	out := runOK(t, "deploy", "-store", store, "-contract", "flipper", "-message", "new", "-args", "0x81f4")
	require.Equal(t, "success", field(t, out, "status"))
	require.Equal(t, "1", field(t, out, "records"))

	out = runOK(t, "call", "-store", store, "-input", flipper.FlipSelector.String())
	require.Equal(t, "success", field(t, out, "status"))
	require.Equal(t, "0", field(t, out, "return_code"))

	out = runOK(t, "call", "-store", store, "-message", "get", "-dry-run")
	require.Equal(t, "0xf5", field(t, out, "output"))

	dump := runOK(t, "dump", "-store", store)
	require.Len(t, strings.Split(strings.TrimSpace(dump), "\n"), 1)
	require.True(t, strings.HasSuffix(strings.TrimSpace(dump), "0xf5"))

	var stdout, stderr bytes.Buffer
	err := run([]string{"call", "-store", store, "-input", flipper.FlipSelector.String(), "-value", "1"}, &stdout, &stderr)
	require.ErrorIs(t, err, errCallFailed)
	require.Equal(t, "trapped", field(t, stdout.String(), "status"))
	require.Contains(t, field(t, stdout.String(), "error"), dispatch.ErrPaidUnpayableMessage.Error())
}

func TestRun_Ledger(t *testing.T) {
	store := filepath.Join(t.TempDir(), "ledger.snap")
	cfg := writeConfig(t, "store = \""+store+"\"\ncontract = \"ledger\"\nlog_format = \"json\"\n")

	// new("alice", 100)
	runOK(t, "deploy", "-config", cfg, "-message", "new", "-args", "0x8265616c6963651864")

	// Token::transfer("alice", "bob", 101)
	var stdout, stderr bytes.Buffer
	err := run([]string{"call", "-config", cfg, "-message", "Token::transfer", "-args", "0x8365616c69636563626f621865"}, &stdout, &stderr)
	require.ErrorIs(t, err, errCallFailed)
	require.Equal(t, "reverted", field(t, stdout.String(), "status"))

	out := runOK(t, "call", "-config", cfg, "-message", "holders")
	require.Equal(t, "0x01", field(t, out, "output"))
}

func TestRun_Errors(t *testing.T) {
	store := filepath.Join(t.TempDir(), "x.snap")
	for name, args := range map[string][]string{
		"no command":      nil,
		"unknown command": {"launch"},
		"no input":        {"call", "-store", store},
		"both inputs":     {"call", "-store", store, "-input", "0x00", "-message", "get"},
		"bad hex":         {"call", "-store", store, "-input", "0xzz"},
		"unknown message": {"call", "-store", store, "-message", "nope"},
		"bad value":       {"call", "-store", store, "-message", "get", "-value", "-1"},
		"missing dump":    {"dump", "-store", store},
	} {
		t.Run(name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			require.Error(t, run(args, &stdout, &stderr))
		})
	}
}
