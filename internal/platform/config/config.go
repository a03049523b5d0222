package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Environment keys. The Sui keys are required at startup.
const (
	KeySuiRPCURL       = "SUI_RPC_URL"
	KeyIssuerSecretKey = "ISSUER_SECRET_KEY"
	KeySuiPackageID    = "SUI_PACKAGE_ID"
	KeySuiSchemaID     = "SUI_SCHEMA_ID"
	KeySuiPolicyID     = "SUI_POLICY_ID"
	KeyDIDObjectID     = "DID_OBJECT_ID"
	KeySuiGasBudget    = "SUI_GAS_BUDGET"

	KeyAddr         = "ADDR"
	KeyEnvironment  = "ENVIRONMENT"
	KeyDatabaseURL  = "DATABASE_URL"
	KeyRedisURL     = "REDIS_URL"
	KeyKafkaBrokers = "KAFKA_BROKERS"
	KeyAuditTopic   = "AUDIT_TOPIC"
	KeyAdminToken   = "ADMIN_TOKEN"
)

// DefaultEnvFile is read when present; process environment always wins over it.
const DefaultEnvFile = ".env"

var requiredKeys = []string{
	KeySuiRPCURL,
	KeyIssuerSecretKey,
	KeySuiPackageID,
	KeySuiSchemaID,
	KeySuiPolicyID,
	KeyDIDObjectID,
}

// Chain holds ledger connection and contract object identifiers.
type Chain struct {
	RPCURL          string
	IssuerSecretKey string
	PackageID       string
	SchemaID        string
	// PolicyID is loaded and validated but no workflow reads it yet.
	PolicyID    string
	DIDObjectID string
	GasBudget   uint64
}

// Config captures process level configuration.
type Config struct {
	Addr         string
	Environment  string
	DatabaseURL  string
	RedisURL     string
	KafkaBrokers string
	AuditTopic   string
	AdminToken   string
	Chain        Chain
}

// IsProduction reports whether the service runs with production defaults.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Load reads configuration from envFile (optional) and the process environment.
// Every missing required key is reported in a single error.
func Load(envFile string) (*Config, error) {
	return load(envFile, requiredKeys)
}

// LoadForSchemaSetup is Load without requiring SUI_SCHEMA_ID, which schema
// setup is about to produce.
func LoadForSchemaSetup(envFile string) (*Config, error) {
	required := make([]string, 0, len(requiredKeys))
	for _, key := range requiredKeys {
		if key != KeySuiSchemaID {
			required = append(required, key)
		}
	}
	return load(envFile, required)
}

func load(envFile string, required []string) (*Config, error) {
	v, err := newViper(envFile)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, key := range required {
		if strings.TrimSpace(v.GetString(key)) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	gasBudget := v.GetUint64(KeySuiGasBudget)
	if gasBudget == 0 {
		return nil, fmt.Errorf("%s must be a positive integer", KeySuiGasBudget)
	}

	return &Config{
		Addr:         v.GetString(KeyAddr),
		Environment:  v.GetString(KeyEnvironment),
		DatabaseURL:  v.GetString(KeyDatabaseURL),
		RedisURL:     v.GetString(KeyRedisURL),
		KafkaBrokers: v.GetString(KeyKafkaBrokers),
		AuditTopic:   v.GetString(KeyAuditTopic),
		AdminToken:   v.GetString(KeyAdminToken),
		Chain: Chain{
			RPCURL:          v.GetString(KeySuiRPCURL),
			IssuerSecretKey: v.GetString(KeyIssuerSecretKey),
			PackageID:       v.GetString(KeySuiPackageID),
			SchemaID:        v.GetString(KeySuiSchemaID),
			PolicyID:        v.GetString(KeySuiPolicyID),
			DIDObjectID:     v.GetString(KeyDIDObjectID),
			GasBudget:       gasBudget,
		},
	}, nil
}

// SaveSchemaID rewrites SUI_SCHEMA_ID in envFile, keeping every other entry.
// The file is created when it does not exist.
func SaveSchemaID(envFile, schemaID string) error {
	v := viper.New()
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
		return fmt.Errorf("read %s: %w", envFile, err)
	}
	v.Set(KeySuiSchemaID, schemaID)
	if err := v.WriteConfigAs(envFile); err != nil {
		return fmt.Errorf("write %s: %w", envFile, err)
	}
	return nil
}

func newViper(envFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(KeyAddr, ":8080")
	v.SetDefault(KeyEnvironment, "development")
	v.SetDefault(KeySuiGasBudget, 10_000_000)
	v.SetDefault(KeyAuditTopic, "kycgate.audit.events")
	v.AutomaticEnv()

	if envFile == "" {
		return v, nil
	}
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", envFile, err)
	}
	return v, nil
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err)
}
