package config

import (
	"errors"
	"os"
	"strconv"
)

type ServerEnv = string

var (
	DevEnv     ServerEnv = "dev"
	StagingEnv ServerEnv = "staging"
	ProdEnv    ServerEnv = "prod"
)

const (
	GENERAL_CONFIG_KEY = "general-config"
	STORAGE_CONFIG_KEY = "storage-config"
	POOL_CONFIG_KEY    = "pool-config"
)

type GeneralConfig struct {
	HTTPPort string
	HTTPHost string
	Env      string
	LogLevel string
}

func (gc *GeneralConfig) Key() string {
	return GENERAL_CONFIG_KEY
}

func (gc *GeneralConfig) Load() error {
	gc.HTTPPort = getEnvOrDefault("HTTP_PORT", "8080")
	gc.HTTPHost = getEnvOrDefault("HTTP_HOST", "localhost")
	gc.Env = getEnvOrDefault("ENV", "dev")
	gc.LogLevel = getEnvOrDefault("LOG_LEVEL", "INFO")
	return gc.Validate()
}

func (gc *GeneralConfig) Validate() error {
	if gc.HTTPPort == "" || gc.HTTPHost == "" || gc.Env == "" {
		return errors.New("invalid server config")
	}
	return nil
}

type StorageConfig struct {
	DBPath string
}

func (sc *StorageConfig) Key() string {
	return STORAGE_CONFIG_KEY
}

func (sc *StorageConfig) Load() error {
	sc.DBPath = getEnvOrDefault("DB_PATH", "./data/cpamm-engine.db")
	return sc.Validate()
}

func (sc *StorageConfig) Validate() error {
	if sc.DBPath == "" {
		return errors.New("invalid storage config")
	}
	return nil
}

// PoolDefaultsConfig is the fee policy newly created pools snapshot.
type PoolDefaultsConfig struct {
	ProviderFeeRateBp uint16
	ProtocolFeeRateBp uint16
	FeeAuthority      string
}

func (pc *PoolDefaultsConfig) Key() string {
	return POOL_CONFIG_KEY
}

func (pc *PoolDefaultsConfig) Load() error {
	provider, err := strconv.ParseUint(getEnvOrDefault("PROVIDER_FEE_RATE_BP", "100"), 10, 16)
	if err != nil {
		return errors.New("invalid PROVIDER_FEE_RATE_BP")
	}
	protocol, err := strconv.ParseUint(getEnvOrDefault("PROTOCOL_FEE_RATE_BP", "100"), 10, 16)
	if err != nil {
		return errors.New("invalid PROTOCOL_FEE_RATE_BP")
	}
	pc.ProviderFeeRateBp = uint16(provider)
	pc.ProtocolFeeRateBp = uint16(protocol)
	pc.FeeAuthority = os.Getenv("FEE_AUTHORITY")
	return pc.Validate()
}

func (pc *PoolDefaultsConfig) Validate() error {
	if uint32(pc.ProviderFeeRateBp)+uint32(pc.ProtocolFeeRateBp) > 10000 {
		return errors.New("provider and protocol fee rates exceed 10000 basis points")
	}
	return nil
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
