package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/meridianlabs-xyz/cpamm-engine/internal/adapters/persistence"
	"github.com/meridianlabs-xyz/cpamm-engine/internal/common"
	"github.com/meridianlabs-xyz/cpamm-engine/internal/config"
	"github.com/meridianlabs-xyz/cpamm-engine/internal/domain"
	"github.com/meridianlabs-xyz/cpamm-engine/internal/http"
	"github.com/meridianlabs-xyz/cpamm-engine/internal/registry"
	"github.com/meridianlabs-xyz/cpamm-engine/internal/service"
	"github.com/meridianlabs-xyz/cpamm-engine/internal/token"
)

func main() {
	common.InitRuntime()

	// .env is optional, real deployments inject env vars directly
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	generalConf := &config.GeneralConfig{}
	if err := generalConf.Load(); err != nil {
		log.Error().Err(err).Msg("failed to load general config")
		return
	}
	common.SetupLogger(generalConf.LogLevel, generalConf.Env)

	storageConf := &config.StorageConfig{}
	if err := storageConf.Load(); err != nil {
		log.Error().Err(err).Msg("failed to load storage config")
		return
	}
	poolConf := &config.PoolDefaultsConfig{}
	if err := poolConf.Load(); err != nil {
		log.Error().Err(err).Msg("failed to load pool config")
		return
	}

	feeAuthority, err := resolveFeeAuthority(poolConf.FeeAuthority)
	if err != nil {
		log.Error().Err(err).Msg("invalid FEE_AUTHORITY")
		return
	}

	storage, err := persistence.NewStorage(storageConf.DBPath)
	if err != nil {
		log.Error().Err(err).Msg("failed to open pool storage")
		return
	}

	ledger := token.NewMemoryLedger()
	poolSvc := service.NewPoolService(
		registry.NewShardedPoolMap(),
		ledger,
		storage,
		domain.PoolConfig{
			ID:                solana.NewWallet().PublicKey(),
			FeeAuthority:      feeAuthority,
			ProviderFeeRateBp: poolConf.ProviderFeeRateBp,
			ProtocolFeeRateBp: poolConf.ProtocolFeeRateBp,
		},
	)
	if err := poolSvc.LoadPools(); err != nil {
		log.Error().Err(err).Msg("failed to restore pools")
		return
	}

	httpSvc := http.NewHTTPService(generalConf, poolSvc, ledger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSvc.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server failed")
		}
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		if err := httpSvc.Stop(); err != nil {
			log.Error().Err(err).Msg("error during shutdown")
		}
	}

	if err := storage.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close pool storage")
	}
	log.Info().Msg("shutdown complete")
}

// resolveFeeAuthority parses the configured fee authority or generates an
// ephemeral one when unset (dev runs).
func resolveFeeAuthority(raw string) (solana.PublicKey, error) {
	if raw == "" {
		key := solana.NewWallet().PublicKey()
		log.Warn().Str("feeAuthority", key.String()).Msg("FEE_AUTHORITY unset, generated ephemeral key")
		return key, nil
	}
	return solana.PublicKeyFromBase58(raw)
}
