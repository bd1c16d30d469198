package persistence

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/boltdb/bolt"
	"github.com/bytedance/sonic"
	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog/log"

	"github.com/meridianlabs-xyz/cpamm-engine/internal/domain"
	"github.com/meridianlabs-xyz/cpamm-engine/internal/fixedpoint"
)

const (
	PoolsBucket = "pools"

	DefaultDBPath = "./data/cpamm-engine.db"
)

// StoredPool is the JSON shape of a pool record at rest. Public keys are
// base58 strings; the fixed-point caches are stored as the decimal string
// of their raw 128-bit magnitude.
type StoredPool struct {
	Address       string `json:"address"`
	ConfigID      string `json:"configId"`
	BaseMint      string `json:"baseMint"`
	QuoteMint     string `json:"quoteMint"`
	LpMint        string `json:"lpMint"`
	BaseVault     string `json:"baseVault"`
	QuoteVault    string `json:"quoteVault"`
	LockedLpVault string `json:"lockedLpVault"`

	Initialized bool `json:"initialized"`
	Launched    bool `json:"launched"`

	BaseReserve  uint64 `json:"baseReserve"`
	QuoteReserve uint64 `json:"quoteReserve"`
	LpSupply     uint64 `json:"lpSupply"`

	ProtocolBaseFeesToRedeem  uint64 `json:"protocolBaseFeesToRedeem"`
	ProtocolQuoteFeesToRedeem uint64 `json:"protocolQuoteFeesToRedeem"`
	InitialLockedLiquidity    uint64 `json:"initialLockedLiquidity"`

	ProviderFeeRateBp uint16 `json:"providerFeeRateBp"`
	ProtocolFeeRateBp uint16 `json:"protocolFeeRateBp"`

	SqrtConstantProduct string `json:"sqrtConstantProduct"`
	SqrtBaseQuoteRatio  string `json:"sqrtBaseQuoteRatio"`
}

type Storage struct {
	db     *bolt.DB
	dbPath string
}

func NewStorage(dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", dbPath, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(PoolsBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create pools bucket: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("[poolStorage] opened database")

	return &Storage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Storage) SavePool(rec *domain.PoolRecord) error {
	data, err := sonic.Marshal(poolToStored(rec))
	if err != nil {
		return fmt.Errorf("failed to marshal pool: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(PoolsBucket)).Put([]byte(rec.Address.String()), data)
	})
}

func (s *Storage) LoadAllPools() ([]*domain.PoolRecord, error) {
	var pools []*domain.PoolRecord
	failed := 0

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(PoolsBucket)).ForEach(func(k, v []byte) error {
			var stored StoredPool
			if err := sonic.Unmarshal(v, &stored); err != nil {
				log.Error().Str("address", string(k)).Err(err).Msg("[poolStorage] failed to unmarshal pool, skipping")
				failed++
				return nil
			}
			rec, err := storedToPool(&stored)
			if err != nil {
				log.Error().Str("address", string(k)).Err(err).Msg("[poolStorage] failed to convert stored pool, skipping")
				failed++
				return nil
			}
			pools = append(pools, rec)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pools: %w", err)
	}

	if failed > 0 {
		log.Error().
			Int("loaded", len(pools)).
			Int("failed", failed).
			Msg("[poolStorage] pool loading completed with errors")
	} else {
		log.Info().
			Int("loaded", len(pools)).
			Msg("[poolStorage] pool loading completed successfully")
	}

	return pools, nil
}

func (s *Storage) GetPoolCount() (int, error) {
	count := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket([]byte(PoolsBucket)).Stats().KeyN
		return nil
	})
	return count, err
}

func poolToStored(rec *domain.PoolRecord) *StoredPool {
	return &StoredPool{
		Address:       rec.Address.String(),
		ConfigID:      rec.ConfigID.String(),
		BaseMint:      rec.BaseMint.String(),
		QuoteMint:     rec.QuoteMint.String(),
		LpMint:        rec.LpMint.String(),
		BaseVault:     rec.BaseVault.String(),
		QuoteVault:    rec.QuoteVault.String(),
		LockedLpVault: rec.LockedLpVault.String(),

		Initialized: rec.Initialized,
		Launched:    rec.Launched,

		BaseReserve:  rec.BaseReserve,
		QuoteReserve: rec.QuoteReserve,
		LpSupply:     rec.LpSupply,

		ProtocolBaseFeesToRedeem:  rec.ProtocolBaseFeesToRedeem,
		ProtocolQuoteFeesToRedeem: rec.ProtocolQuoteFeesToRedeem,
		InitialLockedLiquidity:    rec.InitialLockedLiquidity,

		ProviderFeeRateBp: rec.ProviderFeeRateBp,
		ProtocolFeeRateBp: rec.ProtocolFeeRateBp,

		SqrtConstantProduct: q64ToDecimal(rec.SqrtConstantProduct),
		SqrtBaseQuoteRatio:  q64ToDecimal(rec.SqrtBaseQuoteRatio),
	}
}

func storedToPool(stored *StoredPool) (*domain.PoolRecord, error) {
	rec := &domain.PoolRecord{
		Initialized: stored.Initialized,
		Launched:    stored.Launched,

		BaseReserve:  stored.BaseReserve,
		QuoteReserve: stored.QuoteReserve,
		LpSupply:     stored.LpSupply,

		ProtocolBaseFeesToRedeem:  stored.ProtocolBaseFeesToRedeem,
		ProtocolQuoteFeesToRedeem: stored.ProtocolQuoteFeesToRedeem,
		InitialLockedLiquidity:    stored.InitialLockedLiquidity,

		ProviderFeeRateBp: stored.ProviderFeeRateBp,
		ProtocolFeeRateBp: stored.ProtocolFeeRateBp,
	}

	for _, field := range []struct {
		name  string
		value string
		dst   *solana.PublicKey
	}{
		{"address", stored.Address, &rec.Address},
		{"configId", stored.ConfigID, &rec.ConfigID},
		{"baseMint", stored.BaseMint, &rec.BaseMint},
		{"quoteMint", stored.QuoteMint, &rec.QuoteMint},
		{"lpMint", stored.LpMint, &rec.LpMint},
		{"baseVault", stored.BaseVault, &rec.BaseVault},
		{"quoteVault", stored.QuoteVault, &rec.QuoteVault},
		{"lockedLpVault", stored.LockedLpVault, &rec.LockedLpVault},
	} {
		key, err := solana.PublicKeyFromBase58(field.value)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", field.name, err)
		}
		*field.dst = key
	}

	var err error
	if rec.SqrtConstantProduct, err = q64FromDecimal(stored.SqrtConstantProduct); err != nil {
		return nil, fmt.Errorf("invalid sqrtConstantProduct: %w", err)
	}
	if rec.SqrtBaseQuoteRatio, err = q64FromDecimal(stored.SqrtBaseQuoteRatio); err != nil {
		return nil, fmt.Errorf("invalid sqrtBaseQuoteRatio: %w", err)
	}

	return rec, nil
}

func q64ToDecimal(q fixedpoint.Q64) string {
	hi, lo := q.RawBits()
	var u uint256.Int
	u[0] = lo
	u[1] = hi
	return u.Dec()
}

func q64FromDecimal(s string) (fixedpoint.Q64, error) {
	if s == "" {
		return fixedpoint.Zero(), nil
	}
	var u uint256.Int
	if err := u.SetFromDecimal(s); err != nil {
		return fixedpoint.Zero(), err
	}
	if u.BitLen() > fixedpoint.RawBits {
		return fixedpoint.Zero(), fmt.Errorf("magnitude exceeds %d bits", fixedpoint.RawBits)
	}
	return fixedpoint.FromRawBits(u[1], u[0]), nil
}
