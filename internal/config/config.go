package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/thanhpk/randstr"
)

const (
	// TradeListeningPortKey is the port where the HTTP trade interface will listen on
	TradeListeningPortKey = "TRADE_LISTENING_PORT"
	// OperatorListeningPortKey is the port where the HTTP operator interface will listen on
	OperatorListeningPortKey = "OPERATOR_LISTENING_PORT"
	// DatadirKey is the local data directory to store the internal state of daemon
	DatadirKey = "DATADIR"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// LogFileKey is the optional file where logs are written to, rotated by size
	LogFileKey = "LOG_FILE"
	// DBTypeKey is used to switch database type between those supported
	DBTypeKey = "DB_TYPE"
	// ExpirationPeriodKey is the duration in seconds of escrows and auctions
	ExpirationPeriodKey = "EXPIRATION_PERIOD"
	// EngineAddressKey is the address of the custody account of the engine.
	// It's also the admin of the operators
	EngineAddressKey = "ENGINE_ADDRESS"
	// OperatorsKey is the comma separated list of the initial operators
	OperatorsKey = "OPERATORS"
	// RoyaltyRouterOwnerKey is the only address allowed to point collections
	// at royalty resolvers
	RoyaltyRouterOwnerKey = "ROYALTY_ROUTER_OWNER"
	// RoyaltyRegistryAddressKey is the address the royalty registry is
	// registered at on the router
	RoyaltyRegistryAddressKey = "ROYALTY_REGISTRY_ADDRESS"
	// SupportedTokensKey is the comma separated list of the fungible tokens
	// accepted as payment asset, next to the native currency
	SupportedTokensKey = "SUPPORTED_TOKENS"
	// WebhookTimeoutKey is the timeout in seconds of every webhook request
	WebhookTimeoutKey = "WEBHOOK_TIMEOUT_SEC"
	// WebhookRateLimitKey is the max number of webhook requests per second
	WebhookRateLimitKey = "WEBHOOK_RATE_LIMIT"
	// NoWebhooksKey disables webhook notifications
	NoWebhooksKey = "NO_WEBHOOKS"
	// EnableProfilerKey enables profiler that can be used to investigate performance issues
	EnableProfilerKey = "ENABLE_PROFILER"
	// StatsIntervalKey defines interval in seconds for printing basic daemon statistics
	StatsIntervalKey = "STATS_INTERVAL"
	// AuthSecretKey is the secret the bearer tokens of the HTTP interfaces are
	// signed with. If not set, one is generated into the datadir at first start
	AuthSecretKey = "AUTH_SECRET"

	DBBadger   = "badger"
	DBInMemory = "inmemory"

	DbLocation       = "db"
	ProfilerLocation = "stats"
	PubSubLocation   = "pubsub"
	AuthSecretFile   = "auth.secret"

	minAuthSecretLen = 16
	authSecretLen    = 32
)

var vip *viper.Viper
var defaultDatadir = appDataDir("nftexd")

// InitConfig reads the configuration from the NFTEX_ prefixed environment.
// Variables found in a .env file of the working directory are loaded first,
// without overriding those already set.
func InitConfig() error {
	if err := loadDotEnv(".env"); err != nil {
		return fmt.Errorf("error while loading .env file: %s", err)
	}

	vip = viper.New()
	vip.SetEnvPrefix("NFTEX")
	vip.AutomaticEnv()

	vip.SetDefault(TradeListeningPortKey, 9945)
	vip.SetDefault(OperatorListeningPortKey, 9000)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(DBTypeKey, DBBadger)
	vip.SetDefault(ExpirationPeriodKey, 86400)
	vip.SetDefault(EngineAddressKey, "engine")
	vip.SetDefault(RoyaltyRouterOwnerKey, "router-owner")
	vip.SetDefault(RoyaltyRegistryAddressKey, "royalty-registry")
	vip.SetDefault(WebhookTimeoutKey, 15)
	vip.SetDefault(WebhookRateLimitKey, 50)
	vip.SetDefault(NoWebhooksKey, false)
	vip.SetDefault(EnableProfilerKey, false)
	vip.SetDefault(StatsIntervalKey, 600)

	if err := validate(); err != nil {
		return fmt.Errorf("error while validating config: %s", err)
	}

	if err := initDatadir(); err != nil {
		return fmt.Errorf("error while creating datadir: %s", err)
	}

	return nil
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetInt64(key string) int64 {
	return vip.GetInt64(key)
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

func GetDuration(key string) time.Duration {
	return vip.GetDuration(key)
}

// GetStringSlice returns the comma separated values of key, skipping the
// empty ones.
func GetStringSlice(key string) []string {
	list := make([]string, 0)
	for _, s := range strings.Split(vip.GetString(key), ",") {
		if s = strings.TrimSpace(s); len(s) > 0 {
			list = append(list, s)
		}
	}
	return list
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

// GetAuthSecret returns the configured auth secret, or the one stored in the
// datadir, generating it if missing.
func GetAuthSecret() ([]byte, error) {
	if secret := GetString(AuthSecretKey); len(secret) > 0 {
		return []byte(secret), nil
	}

	path := filepath.Join(GetDatadir(), AuthSecretFile)
	secret, err := os.ReadFile(path)
	if err == nil {
		if len(secret) < minAuthSecretLen {
			return nil, fmt.Errorf("auth secret in %s is too short", path)
		}
		return secret, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	secret = []byte(randstr.Hex(authSecretLen))
	if err := os.WriteFile(path, secret, 0600); err != nil {
		return nil, err
	}
	return secret, nil
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("missing datadir")
	}

	dbType := GetString(DBTypeKey)
	if dbType != DBBadger && dbType != DBInMemory {
		return fmt.Errorf(
			"%s must be either %s or %s", DBTypeKey, DBBadger, DBInMemory,
		)
	}

	if GetInt64(ExpirationPeriodKey) <= 0 {
		return fmt.Errorf("%s must be greater than zero", ExpirationPeriodKey)
	}

	engine := GetString(EngineAddressKey)
	if len(engine) <= 0 {
		return fmt.Errorf("missing engine address")
	}
	if len(GetString(RoyaltyRouterOwnerKey)) <= 0 {
		return fmt.Errorf("missing royalty router owner")
	}
	for _, op := range GetStringSlice(OperatorsKey) {
		if op == engine {
			return fmt.Errorf("engine address is operator by default")
		}
	}

	if GetInt(WebhookTimeoutKey) <= 0 {
		return fmt.Errorf("%s must be greater than zero", WebhookTimeoutKey)
	}
	if GetInt(WebhookRateLimitKey) <= 0 {
		return fmt.Errorf("%s must be greater than zero", WebhookRateLimitKey)
	}
	if secret := GetString(AuthSecretKey); len(secret) > 0 &&
		len(secret) < minAuthSecretLen {
		return fmt.Errorf(
			"%s must be at least %d chars long", AuthSecretKey, minAuthSecretLen,
		)
	}

	return nil
}

func initDatadir() error {
	datadir := GetDatadir()
	if GetString(DBTypeKey) == DBBadger {
		if err := makeDirectoryIfNotExists(filepath.Join(datadir, DbLocation)); err != nil {
			return err
		}
	}

	profilerEnabled := GetBool(EnableProfilerKey)
	if profilerEnabled {
		if err := makeDirectoryIfNotExists(filepath.Join(datadir, ProfilerLocation)); err != nil {
			return err
		}
	}
	return nil
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}

func appDataDir(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "."+name)
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}
