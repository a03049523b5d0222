package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ConfigSuite struct {
	suite.Suite
	dir string
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigSuite))
}

func (s *ConfigSuite) SetupTest() {
	s.dir = s.T().TempDir()
	for _, key := range append(requiredKeys, KeyAddr, KeySuiGasBudget, KeyDatabaseURL) {
		s.T().Setenv(key, "")
	}
}

func (s *ConfigSuite) writeEnv(content string) string {
	path := filepath.Join(s.dir, ".env")
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o600))
	return path
}

const fullEnv = `SUI_RPC_URL=http://127.0.0.1:9000
ISSUER_SECRET_KEY=AAECAwQFBgcICQoLDA0ODxAREhMUFRYXGBkaGxwdHh8g
SUI_PACKAGE_ID=0xpkg
SUI_SCHEMA_ID=0xschema
SUI_POLICY_ID=0xpolicy
DID_OBJECT_ID=0xdid
`

func (s *ConfigSuite) TestLoadFromEnvFile() {
	cfg, err := Load(s.writeEnv(fullEnv))
	s.Require().NoError(err)

	s.Equal("http://127.0.0.1:9000", cfg.Chain.RPCURL)
	s.Equal("0xpkg", cfg.Chain.PackageID)
	s.Equal("0xschema", cfg.Chain.SchemaID)
	s.Equal("0xpolicy", cfg.Chain.PolicyID)
	s.Equal("0xdid", cfg.Chain.DIDObjectID)
	s.Equal(uint64(10_000_000), cfg.Chain.GasBudget)
	s.Equal(":8080", cfg.Addr)
	s.Empty(cfg.DatabaseURL)
}

func (s *ConfigSuite) TestProcessEnvOverridesFile() {
	s.T().Setenv(KeySuiSchemaID, "0xfromenv")
	s.T().Setenv(KeyAddr, ":9090")

	cfg, err := Load(s.writeEnv(fullEnv))
	s.Require().NoError(err)
	s.Equal("0xfromenv", cfg.Chain.SchemaID)
	s.Equal(":9090", cfg.Addr)
}

func (s *ConfigSuite) TestMissingKeysReportedTogether() {
	_, err := Load(s.writeEnv("SUI_RPC_URL=http://127.0.0.1:9000\n"))
	s.Require().Error(err)
	for _, key := range []string{KeyIssuerSecretKey, KeySuiPackageID, KeySuiSchemaID, KeySuiPolicyID, KeyDIDObjectID} {
		s.Contains(err.Error(), key)
	}
	s.NotContains(err.Error(), KeySuiRPCURL)
}

func (s *ConfigSuite) TestMissingFileFallsBackToEnv() {
	s.T().Setenv(KeySuiRPCURL, "http://rpc")
	s.T().Setenv(KeyIssuerSecretKey, "secret")
	s.T().Setenv(KeySuiPackageID, "0xpkg")
	s.T().Setenv(KeySuiSchemaID, "0xschema")
	s.T().Setenv(KeySuiPolicyID, "0xpolicy")
	s.T().Setenv(KeyDIDObjectID, "0xdid")

	cfg, err := Load(filepath.Join(s.dir, "absent.env"))
	s.Require().NoError(err)
	s.Equal("http://rpc", cfg.Chain.RPCURL)
}

func (s *ConfigSuite) TestSaveSchemaIDRewritesOnlySchema() {
	path := s.writeEnv(fullEnv)

	s.Require().NoError(SaveSchemaID(path, "0xnewschema"))

	cfg, err := Load(path)
	s.Require().NoError(err)
	s.Equal("0xnewschema", cfg.Chain.SchemaID)
	s.Equal("0xpkg", cfg.Chain.PackageID)
	s.Equal("0xdid", cfg.Chain.DIDObjectID)
}

func (s *ConfigSuite) TestSchemaSetupDoesNotNeedSchemaID() {
	env := "SUI_RPC_URL=http://127.0.0.1:9000\nISSUER_SECRET_KEY=secret\nSUI_PACKAGE_ID=0xpkg\nSUI_POLICY_ID=0xpolicy\nDID_OBJECT_ID=0xdid\n"
	path := s.writeEnv(env)

	cfg, err := LoadForSchemaSetup(path)
	s.Require().NoError(err)
	s.Empty(cfg.Chain.SchemaID)

	_, err = Load(path)
	s.Require().Error(err)
	s.Contains(err.Error(), KeySuiSchemaID)
}
