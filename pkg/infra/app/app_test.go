package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/ragquery/pkg/app/cliflag"
)

type testSection struct {
	Addr    string        `mapstructure:"addr"`
	Timeout time.Duration `mapstructure:"timeout"`
	Keys    []string      `mapstructure:"keys"`
}

type testOptions struct {
	Server    *testSection `mapstructure:"server"`
	completed bool
	failWith  error
}

func newTestOptions() *testOptions {
	return &testOptions{Server: &testSection{Addr: ":8080", Timeout: time.Second}}
}

func (o *testOptions) Flags() (fss cliflag.NamedFlagSets) {
	fs := fss.FlagSet("server")
	fs.StringVar(&o.Server.Addr, "server.addr", o.Server.Addr, "listen address")
	fs.DurationVar(&o.Server.Timeout, "server.timeout", o.Server.Timeout, "timeout")
	fs.StringSliceVar(&o.Server.Keys, "server.keys", o.Server.Keys, "keys")
	return fss
}

func (o *testOptions) Complete() error {
	o.completed = true
	return nil
}

func (o *testOptions) Validate() error { return o.failWith }

func runApp(t *testing.T, opts *testOptions, args ...string) error {
	t.Helper()
	ran := false
	a := NewApp(
		WithName("ragquery-test"),
		WithOptions(opts),
		WithNoVersion(),
		WithDotenv(),
		WithRunFunc(func() error {
			ran = true
			return nil
		}),
	)
	if args == nil {
		args = []string{}
	}
	a.Command().SetArgs(args)
	err := a.Command().Execute()
	if err == nil {
		assert.True(t, ran)
	}
	return err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestApp_Defaults(t *testing.T) {
	opts := newTestOptions()
	require.NoError(t, runApp(t, opts))
	assert.Equal(t, ":8080", opts.Server.Addr)
	assert.True(t, opts.completed)
}

func TestApp_Precedence(t *testing.T) {
	cfg := writeConfig(t, "server:\n  addr: \":9000\"\n  timeout: 5s\n  keys: [a, b]\n")

	opts := newTestOptions()
	require.NoError(t, runApp(t, opts, "-c", cfg))
	assert.Equal(t, ":9000", opts.Server.Addr)
	assert.Equal(t, 5*time.Second, opts.Server.Timeout)
	assert.Equal(t, []string{"a", "b"}, opts.Server.Keys)

	t.Setenv("RAGQUERY_TEST_SERVER_ADDR", ":9100")
	opts = newTestOptions()
	require.NoError(t, runApp(t, opts, "-c", cfg))
	assert.Equal(t, ":9100", opts.Server.Addr)

	opts = newTestOptions()
	require.NoError(t, runApp(t, opts, "-c", cfg, "--server.addr=:9200"))
	assert.Equal(t, ":9200", opts.Server.Addr)
}

func TestApp_EnvWithoutConfigFile(t *testing.T) {
	t.Setenv("RAGQUERY_TEST_SERVER_TIMEOUT", "3s")

	opts := newTestOptions()
	require.NoError(t, runApp(t, opts))
	assert.Equal(t, 3*time.Second, opts.Server.Timeout)
}

func TestApp_ExpandsEnvInConfig(t *testing.T) {
	t.Setenv("RAGQUERY_TEST_PORT", "9300")
	cfg := writeConfig(t, "server:\n  addr: \":${RAGQUERY_TEST_PORT}\"\n")

	opts := newTestOptions()
	require.NoError(t, runApp(t, opts, "-c", cfg))
	assert.Equal(t, ":9300", opts.Server.Addr)
}

func TestApp_ValidationError(t *testing.T) {
	opts := newTestOptions()
	opts.failWith = errors.New("invalid")
	assert.EqualError(t, runApp(t, opts), "invalid")
}

func TestApp_Dotenv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("RAGQUERY_DOTENV_SERVER_ADDR=:9400\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("RAGQUERY_DOTENV_SERVER_ADDR") })

	opts := newTestOptions()
	a := NewApp(
		WithName("ragquery-dotenv"),
		WithOptions(opts),
		WithNoVersion(),
		WithNoConfig(),
		WithDotenv(envFile, filepath.Join(dir, "missing.env")),
	)
	a.Command().SetArgs([]string{})
	require.NoError(t, a.Command().Execute())
	assert.Equal(t, ":9400", opts.Server.Addr)
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("EXPAND_A", "x")
	assert.Equal(t, "x-x-$EXPAND_MISSING", expandEnv("${EXPAND_A}-$EXPAND_A-$EXPAND_MISSING"))
}

func TestEnvPrefix(t *testing.T) {
	assert.Equal(t, "RAGQUERY_TEST", EnvPrefix("ragquery-test"))
}
