package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yurifrl/ebcrawler/pkg/eurobonus"
)

func testFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("config", "", "")
	flags.String("ebnumber", "", "")
	flags.Bool("all", false, "")
	flags.Int("pages", 0, "")
	flags.String("csv", "", "")
	flags.Duration("poll-interval", 500*time.Millisecond, "")
	require.NoError(t, flags.Parse(args))
	return flags
}

func TestBuildDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Build("", testFlags(t))
	require.NoError(t, err)
	assert.Equal(t, eurobonus.DefaultBaseURL, cfg.APIURL)
	assert.Equal(t, DefaultProfileURL, cfg.ProfileURL)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, eurobonus.Paging{}, cfg.Paging())
}

func TestBuildFlagsAndEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("EBCRAWLER_PASSWORD", "hunter2")
	t.Setenv("EBCRAWLER_API_URL", "http://127.0.0.1:8080")

	cfg, err := Build("", testFlags(t, "--ebnumber", "123456789", "--pages", "3", "--csv", "eb.csv", "--poll-interval", "1s"))
	require.NoError(t, err)
	assert.Equal(t, "123456789", cfg.EBNumber)
	assert.Equal(t, "hunter2", cfg.Password)
	assert.Equal(t, "eb.csv", cfg.CSV)
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Equal(t, "http://127.0.0.1:8080", cfg.ClientOptions().BaseURL)
	assert.Equal(t, eurobonus.Paging{Pages: 3}, cfg.ClientOptions().Paging)
}

func TestBuildConfigFileAndDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfgFile := filepath.Join(dir, "ebcrawler.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("ebnumber: \"987654321\"\nall: true\nrequests_per_second: 0.5\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("EBCRAWLER_PASSWORD=from-dotenv\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("EBCRAWLER_PASSWORD") })

	cfg, err := Build(cfgFile, testFlags(t))
	require.NoError(t, err)
	assert.Equal(t, "987654321", cfg.EBNumber)
	assert.Equal(t, "from-dotenv", cfg.Password)
	assert.True(t, cfg.All)
	assert.Equal(t, 0.5, cfg.RequestsPerSecond)
}

func TestBuildRejectsPagesAndAll(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Build("", testFlags(t, "--all", "--pages", "2"))
	assert.ErrorIs(t, err, ErrPagesAndAll)
}

func TestBuildValidates(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Build("", testFlags(t, "--ebnumber", "EB123"))
	assert.Error(t, err)

	_, err = Build("", testFlags(t, "--pages", "-1"))
	assert.Error(t, err)
}

func TestBuildMissingConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Build("does-not-exist.yaml", nil)
	assert.Error(t, err)
}
