// Copyright 2026 The ink Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package ledger is a fungible token contract.  Balances live in a
// collision-resistant map; the most recent transfers are kept in a fixed
// ring stored packed at a single key.
package ledger

import (
	"github.com/prosopo-io/ink"
	"github.com/prosopo-io/ink/dispatch"
	"github.com/prosopo-io/ink/env"
	"github.com/prosopo-io/ink/storage"
	"github.com/prosopo-io/ink/storage/hashmap"
)

const (
	Name = "ledger"
	// TokenNamespace qualifies the messages every token contract shares.
	TokenNamespace = "Token"
	// RecentLen is how many transfers the ring remembers.
	RecentLen = 8
)

// Revert reasons, returned encoded as the output of a reverted call.
const (
	ReasonInsufficientBalance = "insufficient balance"
	ReasonNotOwner            = "caller is not the owner"
	ReasonOverflow            = "supply overflow"
	ReasonNoAccount           = "no such account"
)

type Transfer struct {
	_      struct{} `cbor:",toarray"`
	From   string
	To     string
	Amount uint64
}

type Ledger struct {
	Owner    storage.Cell[string]
	Supply   storage.Cell[uint64]
	Balances *hashmap.Map[string, uint64]
	Next     storage.Cell[uint32]
	Recent   *storage.Array[Transfer]
}

func newLedger() *Ledger {
	return &Ledger{
		Balances: hashmap.New[string, uint64](),
		Recent:   storage.NewArray[Transfer](RecentLen, storage.LayoutPacked),
	}
}

func (l *Ledger) fields() []storage.Spread {
	return []storage.Spread{&l.Owner, &l.Supply, l.Balances, &l.Next, l.Recent}
}

func (l *Ledger) Footprint() uint64 {
	return storage.FieldsFootprint(l.fields()...)
}

func (l *Ledger) AllocateSpread(host env.StorageHost, ptr *storage.KeyPtr) error {
	return storage.AllocateFields(host, ptr, l.fields()...)
}

func (l *Ledger) PullSpread(host env.StorageHost, ptr *storage.KeyPtr) error {
	return storage.PullFields(host, ptr, l.fields()...)
}

func (l *Ledger) PushSpread(host env.StorageHost, ptr *storage.KeyPtr) error {
	return storage.PushFields(host, ptr, l.fields()...)
}

func (l *Ledger) ClearSpread(host env.StorageHost, ptr *storage.KeyPtr) error {
	return storage.ClearFields(host, ptr, l.fields()...)
}

func (l *Ledger) balance(who string) (uint64, error) {
	v, _, err := l.Balances.Get(who)
	return v, err
}

// setBalance drops accounts that reach zero so Len counts holders.
func (l *Ledger) setBalance(who string, v uint64) error {
	if v == 0 {
		return l.Balances.Erase(who)
	}
	return l.Balances.Insert(who, v)
}

func (l *Ledger) record(t Transfer) error {
	next := l.Next.Get()
	if err := l.Recent.Set(int(next%RecentLen), t); err != nil {
		return err
	}
	l.Next.Set(next + 1)
	return nil
}

type NewArgs struct {
	_      struct{} `cbor:",toarray"`
	Owner  string
	Supply uint64
}

type AccountArgs struct {
	_       struct{} `cbor:",toarray"`
	Account string
}

type TransferArgs struct {
	_      struct{} `cbor:",toarray"`
	From   string
	To     string
	Amount uint64
}

type MintArgs struct {
	_      struct{} `cbor:",toarray"`
	Caller string
	To     string
	Amount uint64
}

func newCtor(_ *dispatch.Context, l *Ledger, args NewArgs) error {
	l.Owner.Set(args.Owner)
	l.Supply.Set(args.Supply)
	return l.setBalance(args.Owner, args.Supply)
}

func totalSupply(_ *dispatch.Context, l *Ledger, _ dispatch.NoArgs) (uint64, error) {
	return l.Supply.Get(), nil
}

func balanceOf(_ *dispatch.Context, l *Ledger, args AccountArgs) (uint64, error) {
	return l.balance(args.Account)
}

func transfer(ctx *dispatch.Context, l *Ledger, args TransferArgs) (dispatch.Unit, error) {
	from, err := l.balance(args.From)
	if err != nil {
		return dispatch.Unit{}, err
	}
	if from < args.Amount {
		ctx.Logger.Debug().Str("from", args.From).Uint64("amount", args.Amount).Msg("insufficient balance")
		return dispatch.Unit{}, dispatch.Revert(ReasonInsufficientBalance)
	}
	if args.From == args.To || args.Amount == 0 {
		return dispatch.Unit{}, nil
	}
	to, err := l.balance(args.To)
	if err != nil {
		return dispatch.Unit{}, err
	}
	if err := l.setBalance(args.From, from-args.Amount); err != nil {
		return dispatch.Unit{}, err
	}
	if err := l.setBalance(args.To, to+args.Amount); err != nil {
		return dispatch.Unit{}, err
	}
	return dispatch.Unit{}, l.record(Transfer{From: args.From, To: args.To, Amount: args.Amount})
}

func owner(_ *dispatch.Context, l *Ledger, _ dispatch.NoArgs) (string, error) {
	return l.Owner.Get(), nil
}

func holders(_ *dispatch.Context, l *Ledger, _ dispatch.NoArgs) (uint32, error) {
	return l.Balances.Len(), nil
}

func mint(_ *dispatch.Context, l *Ledger, args MintArgs) (uint64, error) {
	if args.Caller != l.Owner.Get() {
		return 0, dispatch.Revert(ReasonNotOwner)
	}
	supply := l.Supply.Get()
	if supply+args.Amount < supply {
		return 0, dispatch.Revert(ReasonOverflow)
	}
	to, err := l.balance(args.To)
	if err != nil {
		return 0, err
	}
	if err := l.setBalance(args.To, to+args.Amount); err != nil {
		return 0, err
	}
	l.Supply.Set(supply + args.Amount)
	return supply + args.Amount, l.record(Transfer{To: args.To, Amount: args.Amount})
}

// fund credits the transferred value to an account.
func fund(ctx *dispatch.Context, l *Ledger, args AccountArgs) (uint64, error) {
	amount, ok := ctx.Value.Uint64()
	supply := l.Supply.Get()
	if !ok || supply+amount < supply {
		return 0, dispatch.Revert(ReasonOverflow)
	}
	to, err := l.balance(args.Account)
	if err != nil {
		return 0, err
	}
	if err := l.setBalance(args.Account, to+amount); err != nil {
		return 0, err
	}
	l.Supply.Set(supply + amount)
	return to + amount, nil
}

// closeAccount burns an account's whole balance and returns it.
func closeAccount(_ *dispatch.Context, l *Ledger, args AccountArgs) (uint64, error) {
	v, ok, err := l.Balances.Take(args.Account)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, dispatch.Revert(ReasonNoAccount)
	}
	l.Supply.Set(l.Supply.Get() - v)
	return v, l.record(Transfer{From: args.Account, Amount: v})
}

// recent returns the remembered transfers, oldest first.
func recent(_ *dispatch.Context, l *Ledger, _ dispatch.NoArgs) ([]Transfer, error) {
	next := l.Next.Get()
	n := next
	if n > RecentLen {
		n = RecentLen
	}
	out := make([]Transfer, 0, n)
	for i := next - n; i < next; i++ {
		t, err := l.Recent.Get(int(i % RecentLen))
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// New returns the ledger contract.
func New(opts ...ink.Option) (*ink.Contract[*Ledger], error) {
	token := dispatch.WithNamespace(TokenNamespace)
	return ink.New(Name, newLedger, []dispatch.Entry[*Ledger]{
		dispatch.Constructor("new", newCtor),
		dispatch.Message("total_supply", totalSupply, token),
		dispatch.Message("balance_of", balanceOf, token),
		dispatch.Message("transfer", transfer, token, dispatch.Mutates()),
		dispatch.Message("owner", owner),
		dispatch.Message("holders", holders),
		dispatch.Message("mint", mint, dispatch.Mutates()),
		dispatch.Message("fund", fund, dispatch.Mutates(), dispatch.Payable()),
		dispatch.Message("close", closeAccount, dispatch.Mutates()),
		dispatch.Message("recent", recent),
	}, opts...)
}
