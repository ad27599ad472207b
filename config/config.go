package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

type Configs struct {
	Env string `toml:"env" env:"ENV"`

	Log              LogConfigs        `toml:"log"`
	Database         DatabaseConfigs   `toml:"database"`
	Redis            RedisConfigs      `toml:"redis"`
	Kafka            KafkaConfigs      `toml:"kafka"`
	ApiServer        ServerConfigs     `toml:"api_server"`
	PrometheusServer ServerConfigs     `toml:"prometheus_server"`
	Blockchain       BlockchainConfigs `toml:"blockchain"`
	Mint             MintConfigs       `toml:"mint"`
}

type LogConfigs struct {
	Level      string `toml:"level" env:"LOG_LEVEL"`
	File       string `toml:"file" env:"LOG_FILE"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

type DatabaseConfigs struct {
	// Driver is either "mysql" or "sqlite". For sqlite, Database is the file
	// path.
	Driver   string `toml:"driver" env:"DATABASE_DRIVER"`
	Host     string `toml:"host" env:"DATABASE_HOST"`
	Port     string `toml:"port" env:"DATABASE_PORT"`
	Database string `toml:"database" env:"DATABASE_NAME"`
	User     string `toml:"user" env:"DATABASE_USER"`
	Password string `toml:"password" env:"DATABASE_PASSWORD"`
}

func (d DatabaseConfigs) ConnectionString() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC&multiStatements=true&clientFoundRows=true",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Database,
	)
}

type RedisConfigs struct {
	Addr     string        `toml:"addr" env:"REDIS_ADDR"`
	CacheTTL time.Duration `toml:"cache_ttl"`
}

type KafkaConfigs struct {
	Addrs []string `toml:"addrs" env:"KAFKA_ADDRS"`

	GroupID          string `toml:"group_id"`
	BadgeEarnedTopic string `toml:"badge_earned_topic"`
	NftMintedTopic   string `toml:"nft_minted_topic"`

	// A badge_earned event whose mint fails transiently is delivered again up
	// to MaxRetries times, with a backoff doubling from RetryBackoff.
	MaxRetries   int           `toml:"max_retries"`
	RetryBackoff time.Duration `toml:"retry_backoff"`
}

type ServerConfigs struct {
	Host string `toml:"host"`
	Port string `toml:"port"`
}

func (c ServerConfigs) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

type BlockchainConfigs struct {
	Chain   string   `toml:"chain"`
	ChainID int64    `toml:"chain_id"`
	RPCs    []string `toml:"rpcs" env:"BLOCKCHAIN_RPCS"`

	// Address of the badge collection contract exposing mint(address,uint256).
	ContractAddress string `toml:"contract_address" env:"BLOCKCHAIN_CONTRACT_ADDRESS"`

	// Hex encoded private key of the minter account. If it is empty, the key
	// is derived from SecretKey.
	PrivateKey string `toml:"private_key" env:"BLOCKCHAIN_PRIVATE_KEY"`
	SecretKey  string `toml:"secret_key" env:"BLOCKCHAIN_SECRET_KEY"`

	RPCTimeout                 time.Duration `toml:"rpc_timeout"`
	RefreshConnectionFrequency time.Duration `toml:"refresh_connection_frequency"`
}

type MintConfigs struct {
	// A pending attempt younger than FreshnessWindow is considered in flight.
	FreshnessWindow time.Duration `toml:"freshness_window"`

	// Confirmation wait is bounded by MaxPollAttempts receipt queries spaced
	// by PollInterval.
	PollInterval    time.Duration `toml:"poll_interval"`
	MaxPollAttempts int           `toml:"max_poll_attempts"`

	ReconcileInterval  time.Duration `toml:"reconcile_interval"`
	ReconcileBatchSize int           `toml:"reconcile_batch_size"`
}

// Load reads configurations from the toml file at path, then overrides them
// with environment variables. If envFile exists, it is loaded into the
// environment first.
func Load(path, envFile string) (Configs, error) {
	var cfg Configs

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return Configs{}, fmt.Errorf("load env file %s: %w", envFile, err)
			}
		}
	}

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Configs{}, fmt.Errorf("decode config file %s: %w", path, err)
		}
	}

	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Configs{}, fmt.Errorf("decode environment: %w", err)
	}

	cfg.SetDefaults()
	return cfg, nil
}

func (c *Configs) SetDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}

	if c.Redis.CacheTTL == 0 {
		c.Redis.CacheTTL = 10 * time.Minute
	}

	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "badge-minter"
	}

	if c.Kafka.BadgeEarnedTopic == "" {
		c.Kafka.BadgeEarnedTopic = "badge_earned"
	}

	if c.Kafka.NftMintedTopic == "" {
		c.Kafka.NftMintedTopic = "nft_minted"
	}

	if c.Kafka.MaxRetries == 0 {
		c.Kafka.MaxRetries = 5
	}

	if c.Kafka.RetryBackoff == 0 {
		c.Kafka.RetryBackoff = time.Second
	}

	if c.Blockchain.RPCTimeout == 0 {
		c.Blockchain.RPCTimeout = 5 * time.Second
	}

	if c.Blockchain.RefreshConnectionFrequency == 0 {
		c.Blockchain.RefreshConnectionFrequency = time.Minute
	}

	if c.Mint.FreshnessWindow == 0 {
		c.Mint.FreshnessWindow = 5 * time.Minute
	}

	if c.Mint.PollInterval == 0 {
		c.Mint.PollInterval = 3 * time.Second
	}

	if c.Mint.MaxPollAttempts == 0 {
		c.Mint.MaxPollAttempts = 20
	}

	if c.Mint.ReconcileInterval == 0 {
		c.Mint.ReconcileInterval = time.Minute
	}

	if c.Mint.ReconcileBatchSize == 0 {
		c.Mint.ReconcileBatchSize = 50
	}
}
