// Package token defines the narrow capabilities the pool service needs from
// a token ledger: transfer, mint and burn. The engine itself never touches
// balances; it only produces amounts that are executed here between the
// compute and apply steps of an operation.
package token

import (
	"errors"
	"math/bits"
	"sync"

	"github.com/gagliardetto/solana-go"
)

var (
	ErrUnknownMint       = errors.New("unknown mint")
	ErrInsufficientFunds = errors.New("insufficient token balance")
	ErrSupplyOverflow    = errors.New("mint would overflow total supply")
	ErrSupplyUnderflow   = errors.New("burn would underflow total supply")
	ErrInvalidFeeRate    = errors.New("transfer fee rate exceeds 10000 basis points")
)

// Ledger is the token collaborator interface. Transfer reports the fee the
// token itself withheld (transfer-fee extension mints), which the caller
// must subtract before computing net-in amounts.
type Ledger interface {
	RegisterMint(mint solana.PublicKey, transferFeeBp uint16) error
	Transfer(mint, from, to solana.PublicKey, amount uint64) (feeWithheld uint64, err error)
	Mint(mint, to solana.PublicKey, amount uint64) error
	Burn(mint, from solana.PublicKey, amount uint64) error

	// TransferFee previews the fee a transfer of amount would withhold.
	TransferFee(mint solana.PublicKey, amount uint64) (uint64, error)
	Balance(mint, owner solana.PublicKey) uint64
}

// MemoryLedger is an in-process Ledger with per-mint transfer fees. It
// backs the service in tests and single-node deployments.
type MemoryLedger struct {
	mu sync.Mutex

	balances      map[solana.PublicKey]map[solana.PublicKey]uint64
	supply        map[solana.PublicKey]uint64
	transferFeeBp map[solana.PublicKey]uint16
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		balances:      make(map[solana.PublicKey]map[solana.PublicKey]uint64),
		supply:        make(map[solana.PublicKey]uint64),
		transferFeeBp: make(map[solana.PublicKey]uint16),
	}
}

// RegisterMint creates a mint with an optional transfer fee in basis
// points. Registering an existing mint keeps its fee unchanged.
func (l *MemoryLedger) RegisterMint(mint solana.PublicKey, transferFeeBp uint16) error {
	if transferFeeBp > 10000 {
		return ErrInvalidFeeRate
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.balances[mint]; ok {
		return nil
	}
	l.balances[mint] = make(map[solana.PublicKey]uint64)
	l.transferFeeBp[mint] = transferFeeBp
	return nil
}

func (l *MemoryLedger) Transfer(mint, from, to solana.PublicKey, amount uint64) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	accounts, ok := l.balances[mint]
	if !ok {
		return 0, ErrUnknownMint
	}
	if accounts[from] < amount {
		return 0, ErrInsufficientFunds
	}

	fee := feeOn(amount, l.transferFeeBp[mint])
	accounts[from] -= amount
	accounts[to] += amount - fee
	// Withheld fees leave circulation.
	l.supply[mint] -= fee
	return fee, nil
}

func (l *MemoryLedger) Mint(mint, to solana.PublicKey, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	accounts, ok := l.balances[mint]
	if !ok {
		return ErrUnknownMint
	}
	newSupply, carry := bits.Add64(l.supply[mint], amount, 0)
	if carry != 0 {
		return ErrSupplyOverflow
	}
	l.supply[mint] = newSupply
	accounts[to] += amount
	return nil
}

func (l *MemoryLedger) Burn(mint, from solana.PublicKey, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	accounts, ok := l.balances[mint]
	if !ok {
		return ErrUnknownMint
	}
	if accounts[from] < amount {
		return ErrInsufficientFunds
	}
	newSupply, borrow := bits.Sub64(l.supply[mint], amount, 0)
	if borrow != 0 {
		return ErrSupplyUnderflow
	}
	l.supply[mint] = newSupply
	accounts[from] -= amount
	return nil
}

func (l *MemoryLedger) TransferFee(mint solana.PublicKey, amount uint64) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.balances[mint]; !ok {
		return 0, ErrUnknownMint
	}
	return feeOn(amount, l.transferFeeBp[mint]), nil
}

func (l *MemoryLedger) Balance(mint, owner solana.PublicKey) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[mint][owner]
}

// Supply returns the circulating supply of a mint.
func (l *MemoryLedger) Supply(mint solana.PublicKey) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.supply[mint]
}

// feeOn computes floor(amount * rateBp / 10000) with a 128-bit product.
func feeOn(amount uint64, rateBp uint16) uint64 {
	if rateBp == 0 {
		return 0
	}
	hi, lo := bits.Mul64(amount, uint64(rateBp))
	fee, _ := bits.Div64(hi, lo, 10000)
	return fee
}
