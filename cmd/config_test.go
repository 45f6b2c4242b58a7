package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateHome points $HOME at an empty directory so no user config is read
func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	original := homedir.DisableCache
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = original })
	return home
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, ".guardianweb.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	isolateHome(t)

	cfg, err := loadConfig(nil, "")
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Storage.Driver)
	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, "rules", cfg.Narrative.Provider)
	assert.Empty(t, activeConfigFile)
}

func TestLoadConfigFromHomeFile(t *testing.T) {
	home := isolateHome(t)
	writeConfig(t, home, "server:\n  addr: \":9100\"\nstorage:\n  dir: ~/scans\n")

	cfg, err := loadConfig(nil, "")
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.Server.Addr)
	assert.Equal(t, filepath.Join(home, "scans"), cfg.Storage.Dir)
	assert.Equal(t, filepath.Join(home, ".guardianweb.yaml"), activeConfigFile)
}

func TestLoadConfigPrecedence(t *testing.T) {
	home := isolateHome(t)
	path := writeConfig(t, home, "scan:\n  timeout: 20s\nserver:\n  addr: \":9100\"\n")
	t.Setenv("GUARDIANWEB_SERVER_ADDR", ":9200")
	t.Setenv("GUARDIANWEB_SCAN_TIMEOUT", "30s")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Duration("timeout", 0, "")
	flags.String("addr", "", "")
	require.NoError(t, flags.Set("timeout", "45s"))

	cfg, err := loadConfig(flags, path)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.Scan.Timeout, "explicit flag wins")
	assert.Equal(t, ":9200", cfg.Server.Addr, "environment beats the file when the flag is unset")
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	isolateHome(t)

	_, err := loadConfig(nil, filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadConfigInvalid(t *testing.T) {
	home := isolateHome(t)
	path := writeConfig(t, home, "storage:\n  driver: sqlite\n")

	_, err := loadConfig(nil, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.driver")
}

func TestRedactSecrets(t *testing.T) {
	in := map[string]interface{}{
		"server": map[string]interface{}{
			"addr":       ":8000",
			"auth_token": "s3cret",
		},
		"narrative": map[string]interface{}{
			"api_key":  "",
			"provider": "gemini",
		},
		"storage": map[string]interface{}{"dsn": "postgres://u:p@db/x"},
	}

	out := redactSecrets(in)

	server := out["server"].(map[string]interface{})
	assert.Equal(t, "********", server["auth_token"])
	assert.Equal(t, ":8000", server["addr"])
	narrative := out["narrative"].(map[string]interface{})
	assert.Equal(t, "", narrative["api_key"], "empty secrets stay empty")
	assert.Equal(t, "********", out["storage"].(map[string]interface{})["dsn"])
	assert.Equal(t, "s3cret", in["server"].(map[string]interface{})["auth_token"], "input is not modified")
}
