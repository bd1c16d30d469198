package token

import (
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
)

func TestMintAndTransfer(t *testing.T) {
	ledger := NewMemoryLedger()
	mint := solana.NewWallet().PublicKey()
	alice := solana.NewWallet().PublicKey()
	bob := solana.NewWallet().PublicKey()

	if err := ledger.RegisterMint(mint, 0); err != nil {
		t.Fatalf("RegisterMint failed: %v", err)
	}
	if err := ledger.Mint(mint, alice, 1_000_000); err != nil {
		t.Fatalf("Mint failed: %v", err)
	}

	fee, err := ledger.Transfer(mint, alice, bob, 400_000)
	if err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}
	if fee != 0 {
		t.Errorf("fee-free mint withheld %d", fee)
	}
	if got := ledger.Balance(mint, alice); got != 600_000 {
		t.Errorf("sender balance = %d, want 600000", got)
	}
	if got := ledger.Balance(mint, bob); got != 400_000 {
		t.Errorf("receiver balance = %d, want 400000", got)
	}
	if got := ledger.Supply(mint); got != 1_000_000 {
		t.Errorf("supply = %d, want 1000000", got)
	}
}

func TestTransferFeeWithholding(t *testing.T) {
	ledger := NewMemoryLedger()
	mint := solana.NewWallet().PublicKey()
	alice := solana.NewWallet().PublicKey()
	bob := solana.NewWallet().PublicKey()

	// 2% transfer fee.
	if err := ledger.RegisterMint(mint, 200); err != nil {
		t.Fatalf("RegisterMint failed: %v", err)
	}
	if err := ledger.Mint(mint, alice, 1_000_000); err != nil {
		t.Fatalf("Mint failed: %v", err)
	}

	preview, err := ledger.TransferFee(mint, 100_000)
	if err != nil || preview != 2_000 {
		t.Errorf("TransferFee preview = %d, err=%v, want 2000", preview, err)
	}

	fee, err := ledger.Transfer(mint, alice, bob, 100_000)
	if err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}
	if fee != 2_000 {
		t.Errorf("withheld fee = %d, want 2000", fee)
	}
	if got := ledger.Balance(mint, alice); got != 900_000 {
		t.Errorf("sender balance = %d, want 900000", got)
	}
	if got := ledger.Balance(mint, bob); got != 98_000 {
		t.Errorf("receiver balance = %d, want 98000", got)
	}
	if got := ledger.Supply(mint); got != 998_000 {
		t.Errorf("withheld fee must leave circulation, supply = %d, want 998000", got)
	}
}

func TestRegisterMintKeepsExistingFee(t *testing.T) {
	ledger := NewMemoryLedger()
	mint := solana.NewWallet().PublicKey()

	if err := ledger.RegisterMint(mint, 500); err != nil {
		t.Fatalf("RegisterMint failed: %v", err)
	}
	// Re-registration must not clobber the fee.
	if err := ledger.RegisterMint(mint, 0); err != nil {
		t.Fatalf("re-register failed: %v", err)
	}

	fee, err := ledger.TransferFee(mint, 10_000)
	if err != nil || fee != 500 {
		t.Errorf("fee after re-register = %d, err=%v, want 500", fee, err)
	}
}

func TestRegisterMintRejectsExcessiveFee(t *testing.T) {
	ledger := NewMemoryLedger()
	err := ledger.RegisterMint(solana.NewWallet().PublicKey(), 10_001)
	if !errors.Is(err, ErrInvalidFeeRate) {
		t.Errorf("got %v, want ErrInvalidFeeRate", err)
	}
}

func TestLedgerErrors(t *testing.T) {
	ledger := NewMemoryLedger()
	mint := solana.NewWallet().PublicKey()
	unknown := solana.NewWallet().PublicKey()
	alice := solana.NewWallet().PublicKey()
	bob := solana.NewWallet().PublicKey()

	if err := ledger.RegisterMint(mint, 0); err != nil {
		t.Fatalf("RegisterMint failed: %v", err)
	}
	if err := ledger.Mint(mint, alice, 1000); err != nil {
		t.Fatalf("Mint failed: %v", err)
	}

	t.Run("unknown mint", func(t *testing.T) {
		if _, err := ledger.Transfer(unknown, alice, bob, 1); !errors.Is(err, ErrUnknownMint) {
			t.Errorf("Transfer: got %v", err)
		}
		if err := ledger.Mint(unknown, alice, 1); !errors.Is(err, ErrUnknownMint) {
			t.Errorf("Mint: got %v", err)
		}
		if err := ledger.Burn(unknown, alice, 1); !errors.Is(err, ErrUnknownMint) {
			t.Errorf("Burn: got %v", err)
		}
		if _, err := ledger.TransferFee(unknown, 1); !errors.Is(err, ErrUnknownMint) {
			t.Errorf("TransferFee: got %v", err)
		}
	})

	t.Run("insufficient funds", func(t *testing.T) {
		if _, err := ledger.Transfer(mint, alice, bob, 1001); !errors.Is(err, ErrInsufficientFunds) {
			t.Errorf("Transfer: got %v", err)
		}
		if err := ledger.Burn(mint, alice, 1001); !errors.Is(err, ErrInsufficientFunds) {
			t.Errorf("Burn: got %v", err)
		}
	})

	t.Run("supply overflow", func(t *testing.T) {
		if err := ledger.Mint(mint, alice, ^uint64(0)); !errors.Is(err, ErrSupplyOverflow) {
			t.Errorf("got %v", err)
		}
	})
}

func TestBurn(t *testing.T) {
	ledger := NewMemoryLedger()
	mint := solana.NewWallet().PublicKey()
	alice := solana.NewWallet().PublicKey()

	if err := ledger.RegisterMint(mint, 0); err != nil {
		t.Fatalf("RegisterMint failed: %v", err)
	}
	if err := ledger.Mint(mint, alice, 1000); err != nil {
		t.Fatalf("Mint failed: %v", err)
	}
	if err := ledger.Burn(mint, alice, 400); err != nil {
		t.Fatalf("Burn failed: %v", err)
	}

	if got := ledger.Balance(mint, alice); got != 600 {
		t.Errorf("balance = %d, want 600", got)
	}
	if got := ledger.Supply(mint); got != 600 {
		t.Errorf("supply = %d, want 600", got)
	}
}
