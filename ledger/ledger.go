// Package ledger keeps the escrow of staked value and the balances paid out of it.
package ledger

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/Dosada05/tournament-engine/state"
	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrPayeeRejected      = errors.New("payee rejected transfer")
	ErrInsufficientEscrow = errors.New("insufficient escrow")
	ErrInvalidAmount      = errors.New("invalid amount")
)

// Ledger holds escrowed stakes and credited balances. Mutations are journaled
// so the engine can roll them back together with its own state.
type Ledger struct {
	mu       sync.RWMutex
	journal  state.Journal
	escrow   *big.Int
	balances map[common.Address]*big.Int
	rejects  map[common.Address]bool
}

func New() *Ledger {
	return &Ledger{
		escrow:   new(big.Int),
		balances: make(map[common.Address]*big.Int),
		rejects:  make(map[common.Address]bool),
	}
}

// Receive moves a stake from a player into escrow.
func (l *Ledger) Receive(from common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	state.Set(&l.journal, &l.escrow, new(big.Int).Add(l.escrow, amount))
	return nil
}

// Transfer pays amount out of escrow to to.
func (l *Ledger) Transfer(to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.rejects[to] || to == (common.Address{}) {
		return fmt.Errorf("%w: %s", ErrPayeeRejected, to.Hex())
	}
	if l.escrow.Cmp(amount) < 0 {
		return fmt.Errorf("%w: want %s, have %s", ErrInsufficientEscrow, amount, l.escrow)
	}
	state.Set(&l.journal, &l.escrow, new(big.Int).Sub(l.escrow, amount))
	prev := l.balances[to]
	if prev == nil {
		prev = new(big.Int)
	}
	state.Put(&l.journal, l.balances, to, new(big.Int).Add(prev, amount))
	return nil
}

func (l *Ledger) Balance(addr common.Address) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if b := l.balances[addr]; b != nil {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

func (l *Ledger) Escrow() *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return new(big.Int).Set(l.escrow)
}

// Reject makes every later transfer to addr fail. Used to model payees that refuse funds.
func (l *Ledger) Reject(addr common.Address) {
	l.mu.Lock()
	l.rejects[addr] = true
	l.mu.Unlock()
}

func (l *Ledger) Accept(addr common.Address) {
	l.mu.Lock()
	delete(l.rejects, addr)
	l.mu.Unlock()
}

func (l *Ledger) Snapshot() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.journal.Snapshot()
}

func (l *Ledger) RevertToSnapshot(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.journal.RevertToSnapshot(id)
}

func (l *Ledger) Commit() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.journal.Commit()
}
