package domain

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/meridianlabs-xyz/cpamm-engine/internal/fixedpoint"
)

// AccountSize is the fixed byte length of a serialized PoolRecord:
// 2 flag bytes, 8 identities of 32 bytes, 6 u64 fields, 2 u16 fields and
// 2 u128 fixed-point magnitudes.
const AccountSize = 2 + 8*32 + 6*8 + 2*2 + 2*16

// MarshalAccount serializes the record into its fixed-width account layout.
// Fields are written in a fixed order with little-endian integers; the
// fixed-point caches are stored as their raw 128-bit magnitudes.
func (p *PoolRecord) MarshalAccount() ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Grow(AccountSize)
	enc := bin.NewBorshEncoder(buf)

	if err := enc.WriteBool(p.Initialized); err != nil {
		return nil, err
	}
	if err := enc.WriteBool(p.Launched); err != nil {
		return nil, err
	}

	for _, key := range []solana.PublicKey{
		p.Address, p.ConfigID,
		p.BaseMint, p.QuoteMint, p.LpMint,
		p.BaseVault, p.QuoteVault, p.LockedLpVault,
	} {
		if err := enc.WriteBytes(key[:], false); err != nil {
			return nil, err
		}
	}

	for _, v := range []uint64{
		p.BaseReserve, p.QuoteReserve, p.LpSupply,
		p.ProtocolBaseFeesToRedeem, p.ProtocolQuoteFeesToRedeem,
		p.InitialLockedLiquidity,
	} {
		if err := enc.WriteUint64(v, binary.LittleEndian); err != nil {
			return nil, err
		}
	}

	if err := enc.WriteUint16(p.ProviderFeeRateBp, binary.LittleEndian); err != nil {
		return nil, err
	}
	if err := enc.WriteUint16(p.ProtocolFeeRateBp, binary.LittleEndian); err != nil {
		return nil, err
	}

	if err := enc.WriteUint128(q64ToUint128(p.SqrtConstantProduct), binary.LittleEndian); err != nil {
		return nil, err
	}
	if err := enc.WriteUint128(q64ToUint128(p.SqrtBaseQuoteRatio), binary.LittleEndian); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// UnmarshalAccount reads a record back from its fixed-width account layout.
func (p *PoolRecord) UnmarshalAccount(data []byte) error {
	if len(data) != AccountSize {
		return fmt.Errorf("invalid account data length: got %d, want %d", len(data), AccountSize)
	}
	dec := bin.NewBorshDecoder(data)

	var err error
	if p.Initialized, err = dec.ReadBool(); err != nil {
		return err
	}
	if p.Launched, err = dec.ReadBool(); err != nil {
		return err
	}

	for _, key := range []*solana.PublicKey{
		&p.Address, &p.ConfigID,
		&p.BaseMint, &p.QuoteMint, &p.LpMint,
		&p.BaseVault, &p.QuoteVault, &p.LockedLpVault,
	} {
		raw, err := dec.ReadNBytes(32)
		if err != nil {
			return err
		}
		copy(key[:], raw)
	}

	for _, v := range []*uint64{
		&p.BaseReserve, &p.QuoteReserve, &p.LpSupply,
		&p.ProtocolBaseFeesToRedeem, &p.ProtocolQuoteFeesToRedeem,
		&p.InitialLockedLiquidity,
	} {
		if *v, err = dec.ReadUint64(binary.LittleEndian); err != nil {
			return err
		}
	}

	if p.ProviderFeeRateBp, err = dec.ReadUint16(binary.LittleEndian); err != nil {
		return err
	}
	if p.ProtocolFeeRateBp, err = dec.ReadUint16(binary.LittleEndian); err != nil {
		return err
	}

	sqrtCP, err := dec.ReadUint128(binary.LittleEndian)
	if err != nil {
		return err
	}
	p.SqrtConstantProduct = uint128ToQ64(sqrtCP)

	sqrtRatio, err := dec.ReadUint128(binary.LittleEndian)
	if err != nil {
		return err
	}
	p.SqrtBaseQuoteRatio = uint128ToQ64(sqrtRatio)

	return nil
}

func q64ToUint128(q fixedpoint.Q64) bin.Uint128 {
	hi, lo := q.RawBits()
	return bin.Uint128{Lo: lo, Hi: hi}
}

func uint128ToQ64(v bin.Uint128) fixedpoint.Q64 {
	return fixedpoint.FromRawBits(v.Hi, v.Lo)
}
