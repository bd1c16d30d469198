// Package service orchestrates pool operations end to end: compute a
// payload with the engine, execute the token movement against the ledger,
// then apply the payload and persist the record. If the token movement
// fails the payload is discarded and the record is left untouched.
package service

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"

	"github.com/meridianlabs-xyz/cpamm-engine/internal/adapters/persistence"
	"github.com/meridianlabs-xyz/cpamm-engine/internal/domain"
	"github.com/meridianlabs-xyz/cpamm-engine/internal/engine"
	"github.com/meridianlabs-xyz/cpamm-engine/internal/metrics"
	"github.com/meridianlabs-xyz/cpamm-engine/internal/registry"
	"github.com/meridianlabs-xyz/cpamm-engine/internal/token"
)

var ErrPoolNotFound = errors.New("pool not found")

const numOpLocks = 16

// PoolService owns the live pool registry and serializes operations per
// pool. The engine assumes at most one operation in flight against a
// record; the sharded operation locks enforce that. Published records are
// never mutated in place: an operation applies its payload to a copy and
// replaces the registry entry, so readers always see a complete record.
type PoolService struct {
	registry *registry.ShardedPoolMap
	ledger   token.Ledger
	storage  *persistence.Storage

	defaults     domain.PoolConfig
	feeAuthority solana.PublicKey

	opLocks [numOpLocks]sync.Mutex
}

func NewPoolService(
	reg *registry.ShardedPoolMap,
	ledger token.Ledger,
	storage *persistence.Storage,
	defaults domain.PoolConfig,
) *PoolService {
	return &PoolService{
		registry:     reg,
		ledger:       ledger,
		storage:      storage,
		defaults:     defaults,
		feeAuthority: defaults.FeeAuthority,
	}
}

// LoadPools restores persisted records into the registry at startup.
func (s *PoolService) LoadPools() error {
	if s.storage == nil {
		return nil
	}
	pools, err := s.storage.LoadAllPools()
	if err != nil {
		return err
	}
	launched := 0
	for _, rec := range pools {
		s.registry.Set(rec.Address, rec)
		if rec.Launched {
			launched++
		}
	}
	metrics.PoolCount.Set(float64(s.registry.Len()))
	metrics.LaunchedPoolCount.Set(float64(launched))
	log.Info().Int("count", len(pools)).Msg("[poolService] restored pools from storage")
	return nil
}

func (s *PoolService) opLock(addr solana.PublicKey) *sync.Mutex {
	return &s.opLocks[addr[0]%numOpLocks]
}

// lockPool resolves a pool and acquires its operation lock. The registry is
// re-read after acquisition because a concurrent operation may have
// replaced the record between resolution and locking.
func (s *PoolService) lockPool(address string) (*domain.PoolRecord, func(), error) {
	rec, err := s.GetPool(address)
	if err != nil {
		return nil, nil, err
	}
	lock := s.opLock(rec.Address)
	lock.Lock()
	rec, ok := s.registry.Get(rec.Address)
	if !ok {
		lock.Unlock()
		return nil, nil, ErrPoolNotFound
	}
	return rec, lock.Unlock, nil
}

// GetPool resolves a pool record by its base58 address.
func (s *PoolService) GetPool(address string) (*domain.PoolRecord, error) {
	key, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return nil, fmt.Errorf("invalid pool address: %w", err)
	}
	rec, ok := s.registry.Get(key)
	if !ok {
		return nil, ErrPoolNotFound
	}
	return rec, nil
}

// ListPools returns all tracked pool records.
func (s *PoolService) ListPools() []*domain.PoolRecord {
	return s.registry.GetAll()
}

// CreatePool initializes a fresh pool for a base/quote pair using the
// default fee config. The LP mint and vault identities are generated here.
func (s *PoolService) CreatePool(baseMint, quoteMint solana.PublicKey) (*domain.PoolRecord, error) {
	address := solana.NewWallet().PublicKey()
	lpMint := solana.NewWallet().PublicKey()
	baseVault := solana.NewWallet().PublicKey()
	quoteVault := solana.NewWallet().PublicKey()
	lockedLpVault := solana.NewWallet().PublicKey()

	rec := &domain.PoolRecord{Address: address}

	payload, err := engine.Initialize(rec, baseMint, quoteMint, lpMint, baseVault, quoteVault, lockedLpVault, s.defaults)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.RegisterMint(lpMint, 0); err != nil {
		return nil, fmt.Errorf("failed to create lp mint: %w", err)
	}

	engine.ApplyInitialize(rec, payload)
	s.registry.Set(address, rec)
	metrics.PoolCount.Set(float64(s.registry.Len()))

	if err := s.persist(rec); err != nil {
		return nil, err
	}

	log.Info().
		Str("pool", address.String()).
		Str("baseMint", baseMint.String()).
		Str("quoteMint", quoteMint.String()).
		Msg("[poolService] pool initialized")
	return rec, nil
}

// Launch bootstraps a pool with its first liquidity. Transfer fees the
// deposit mints withhold are subtracted before the engine sees the amounts,
// so the reserves match what actually arrives in the vaults.
func (s *PoolService) Launch(address string, launcher solana.PublicKey, baseLiquidity, quoteLiquidity uint64) (*engine.LaunchPayload, error) {
	rec, unlock, err := s.lockPool(address)
	if err != nil {
		return nil, err
	}
	defer unlock()

	defer s.observe("launch", time.Now())

	netBase, netQuote, err := s.netDeposits(rec, baseLiquidity, quoteLiquidity)
	if err != nil {
		return nil, s.fail("launch", err)
	}

	payload, err := engine.Launch(rec, netBase, netQuote)
	if err != nil {
		return nil, s.fail("launch", err)
	}

	if err := s.depositBoth(rec, launcher, baseLiquidity, quoteLiquidity); err != nil {
		return nil, s.fail("launch", err)
	}
	if err := s.ledger.Mint(rec.LpMint, launcher, payload.LaunchLiquidity); err != nil {
		return nil, s.fail("launch", err)
	}
	if err := s.ledger.Mint(rec.LpMint, rec.LockedLpVault, payload.InitialLockedLiquidity); err != nil {
		return nil, s.fail("launch", err)
	}

	next := *rec
	engine.ApplyLaunch(&next, payload)
	s.registry.Set(next.Address, &next)
	metrics.PoolOperations.WithLabelValues("launch", "success").Inc()
	metrics.LaunchedPoolCount.Inc()

	if err := s.persist(&next); err != nil {
		return nil, err
	}

	log.Info().
		Str("pool", rec.Address.String()).
		Uint64("lpSupply", payload.LpSupply).
		Uint64("launchLiquidity", payload.LaunchLiquidity).
		Msg("[poolService] pool launched")
	return payload, nil
}

// Provide adds liquidity and mints LP tokens to the provider.
func (s *PoolService) Provide(address string, provider solana.PublicKey, baseLiquidity, quoteLiquidity uint64) (*engine.ProvidePayload, error) {
	rec, unlock, err := s.lockPool(address)
	if err != nil {
		return nil, err
	}
	defer unlock()

	defer s.observe("provide", time.Now())

	netBase, netQuote, err := s.netDeposits(rec, baseLiquidity, quoteLiquidity)
	if err != nil {
		return nil, s.fail("provide", err)
	}

	payload, err := engine.Provide(rec, netBase, netQuote)
	if err != nil {
		return nil, s.fail("provide", err)
	}

	if err := s.depositBoth(rec, provider, baseLiquidity, quoteLiquidity); err != nil {
		return nil, s.fail("provide", err)
	}
	if err := s.ledger.Mint(rec.LpMint, provider, payload.LpTokensToMint); err != nil {
		return nil, s.fail("provide", err)
	}

	next := *rec
	engine.ApplyProvide(&next, payload)
	s.registry.Set(next.Address, &next)
	metrics.PoolOperations.WithLabelValues("provide", "success").Inc()

	if err := s.persist(&next); err != nil {
		return nil, err
	}
	return payload, nil
}

// Withdraw burns LP tokens and pays out both reserves proportionally.
func (s *PoolService) Withdraw(address string, provider solana.PublicKey, lpTokens uint64) (*engine.WithdrawPayload, error) {
	rec, unlock, err := s.lockPool(address)
	if err != nil {
		return nil, err
	}
	defer unlock()

	defer s.observe("withdraw", time.Now())

	payload, err := engine.Withdraw(rec, lpTokens)
	if err != nil {
		return nil, s.fail("withdraw", err)
	}

	if err := s.ledger.Burn(rec.LpMint, provider, payload.LpTokensToBurn); err != nil {
		return nil, s.fail("withdraw", err)
	}
	if _, err := s.ledger.Transfer(rec.BaseMint, rec.BaseVault, provider, payload.BaseWithdrawAmount); err != nil {
		return nil, s.fail("withdraw", err)
	}
	if _, err := s.ledger.Transfer(rec.QuoteMint, rec.QuoteVault, provider, payload.QuoteWithdrawAmount); err != nil {
		return nil, s.fail("withdraw", err)
	}

	next := *rec
	engine.ApplyWithdraw(&next, payload)
	s.registry.Set(next.Address, &next)
	metrics.PoolOperations.WithLabelValues("withdraw", "success").Inc()

	if err := s.persist(&next); err != nil {
		return nil, err
	}
	return payload, nil
}

// Swap exchanges amountIn of the in-side mint for the out-side mint. The
// in-transfer fee the token withholds is subtracted before the engine
// computes, mirroring what the vault actually receives.
func (s *PoolService) Swap(
	address string,
	trader solana.PublicKey,
	amountIn, estimatedResult, allowedSlippage uint64,
	direction domain.SwapDirection,
) (*engine.SwapPayload, error) {
	rec, unlock, err := s.lockPool(address)
	if err != nil {
		return nil, err
	}
	defer unlock()

	defer s.observe("swap", time.Now())

	inMint, inVault := rec.BaseMint, rec.BaseVault
	outMint, outVault := rec.QuoteMint, rec.QuoteVault
	if direction == domain.QuoteToBase {
		inMint, inVault = rec.QuoteMint, rec.QuoteVault
		outMint, outVault = rec.BaseMint, rec.BaseVault
	}

	inFee, err := s.ledger.TransferFee(inMint, amountIn)
	if err != nil {
		return nil, s.failSwap(direction, err)
	}

	payload, err := engine.Swap(rec, amountIn-inFee, estimatedResult, allowedSlippage, direction)
	if err != nil {
		return nil, s.failSwap(direction, err)
	}

	if _, err := s.ledger.Transfer(inMint, trader, inVault, amountIn); err != nil {
		return nil, s.failSwap(direction, err)
	}
	if _, err := s.ledger.Transfer(outMint, outVault, trader, payload.AmountToWithdraw); err != nil {
		return nil, s.failSwap(direction, err)
	}

	next := *rec
	engine.ApplySwap(&next, payload)
	s.registry.Set(next.Address, &next)
	metrics.SwapRequests.WithLabelValues(direction.String(), "success").Inc()
	metrics.PoolOperations.WithLabelValues("swap", "success").Inc()

	if err := s.persist(&next); err != nil {
		return nil, err
	}

	log.Debug().
		Str("pool", rec.Address.String()).
		Str("direction", direction.String()).
		Uint64("amountIn", amountIn).
		Uint64("amountOut", payload.AmountToWithdraw).
		Msg("[poolService] swap executed")
	return payload, nil
}

// CollectFees transfers accrued protocol fees to the fee authority and
// resets the accumulators.
func (s *PoolService) CollectFees(address string) (*engine.CollectFeesPayload, error) {
	rec, unlock, err := s.lockPool(address)
	if err != nil {
		return nil, err
	}
	defer unlock()

	defer s.observe("collect_fees", time.Now())

	payload, err := engine.CollectFees(rec)
	if err != nil {
		return nil, s.fail("collect_fees", err)
	}

	if payload.BaseFees > 0 {
		if _, err := s.ledger.Transfer(rec.BaseMint, rec.BaseVault, s.feeAuthority, payload.BaseFees); err != nil {
			return nil, s.fail("collect_fees", err)
		}
	}
	if payload.QuoteFees > 0 {
		if _, err := s.ledger.Transfer(rec.QuoteMint, rec.QuoteVault, s.feeAuthority, payload.QuoteFees); err != nil {
			return nil, s.fail("collect_fees", err)
		}
	}

	next := *rec
	engine.ApplyCollectFees(&next, payload)
	s.registry.Set(next.Address, &next)
	metrics.PoolOperations.WithLabelValues("collect_fees", "success").Inc()
	metrics.ProtocolFeesRedeemed.WithLabelValues("base").Add(float64(payload.BaseFees))
	metrics.ProtocolFeesRedeemed.WithLabelValues("quote").Add(float64(payload.QuoteFees))

	if err := s.persist(&next); err != nil {
		return nil, err
	}
	return payload, nil
}

// netDeposits previews the transfer fees on both deposit legs and returns
// the amounts that will actually reach the vaults.
func (s *PoolService) netDeposits(rec *domain.PoolRecord, baseLiquidity, quoteLiquidity uint64) (uint64, uint64, error) {
	baseFee, err := s.ledger.TransferFee(rec.BaseMint, baseLiquidity)
	if err != nil {
		return 0, 0, err
	}
	quoteFee, err := s.ledger.TransferFee(rec.QuoteMint, quoteLiquidity)
	if err != nil {
		return 0, 0, err
	}
	return baseLiquidity - baseFee, quoteLiquidity - quoteFee, nil
}

// depositBoth moves both deposit legs into the vaults. If the second leg
// fails the first is returned to the depositor so the ledger stays
// consistent with the untouched record.
func (s *PoolService) depositBoth(rec *domain.PoolRecord, from solana.PublicKey, baseLiquidity, quoteLiquidity uint64) error {
	if _, err := s.ledger.Transfer(rec.BaseMint, from, rec.BaseVault, baseLiquidity); err != nil {
		return err
	}
	if _, err := s.ledger.Transfer(rec.QuoteMint, from, rec.QuoteVault, quoteLiquidity); err != nil {
		if _, refundErr := s.ledger.Transfer(rec.BaseMint, rec.BaseVault, from, baseLiquidity); refundErr != nil {
			log.Error().Err(refundErr).Str("pool", rec.Address.String()).Msg("[poolService] failed to refund base deposit")
		}
		return err
	}
	return nil
}

func (s *PoolService) persist(rec *domain.PoolRecord) error {
	if s.storage == nil {
		return nil
	}
	if err := s.storage.SavePool(rec); err != nil {
		log.Error().Err(err).Str("pool", rec.Address.String()).Msg("[poolService] failed to persist pool")
		return err
	}
	return nil
}

func (s *PoolService) fail(operation string, err error) error {
	metrics.PoolOperations.WithLabelValues(operation, "error").Inc()
	return err
}

func (s *PoolService) failSwap(direction domain.SwapDirection, err error) error {
	metrics.SwapRequests.WithLabelValues(direction.String(), "error").Inc()
	metrics.PoolOperations.WithLabelValues("swap", "error").Inc()
	return err
}

func (s *PoolService) observe(operation string, start time.Time) {
	metrics.PoolOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
