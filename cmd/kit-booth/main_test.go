package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sweeney/kit-booth/internal/config"
)

// TestEnvVarNames verifies the env var constants match what pi-helper writes
// to /run/pi-helper.env.
func TestEnvVarNames(t *testing.T) {
	want := map[string]string{
		"NETWORK_TYPE":        envNetworkType,
		"NETWORK_IP":          envNetworkIP,
		"NETWORK_STATUS":      envNetworkStatus,
		"NETWORK_GATEWAY":     envNetworkGateway,
		"NETWORK_WIFI_STATUS": envNetworkWifiStatus,
		"NETWORK_WIFI_SSID":   envNetworkWifiSSID,
	}
	for canonical, got := range want {
		if got != canonical {
			t.Errorf("env var constant: got %q, want %q", got, canonical)
		}
	}
}

func TestReadNetworkInfoAllSet(t *testing.T) {
	t.Setenv(envNetworkType, "wifi")
	t.Setenv(envNetworkIP, "192.168.1.100")
	t.Setenv(envNetworkStatus, "connected")
	t.Setenv(envNetworkGateway, "192.168.1.1")
	t.Setenv(envNetworkWifiStatus, "connected")
	t.Setenv(envNetworkWifiSSID, "Makerspace")

	info := readNetworkInfo()
	if info == nil {
		t.Fatal("expected non-nil NetworkInfo")
	}
	if info.Type != "wifi" || info.IP != "192.168.1.100" || info.Gateway != "192.168.1.1" {
		t.Errorf("unexpected network info: %+v", info)
	}
	if info.WifiStatus != "connected" || info.SSID != "Makerspace" {
		t.Errorf("unexpected wifi info: %+v", info)
	}
}

func TestReadNetworkInfoNoneSet(t *testing.T) {
	t.Setenv(envNetworkStatus, "")
	if info := readNetworkInfo(); info != nil {
		t.Errorf("expected nil when NETWORK_STATUS is unset, got %+v", info)
	}
}

func TestReadNetworkInfoPartial(t *testing.T) {
	t.Setenv(envNetworkStatus, "connected")
	t.Setenv(envNetworkType, "")

	info := readNetworkInfo()
	if info == nil {
		t.Fatal("expected non-nil NetworkInfo when NETWORK_STATUS is set")
	}
	if info.Status != "connected" {
		t.Errorf("Status: got %q, want connected", info.Status)
	}
	if info.Type != "" {
		t.Errorf("Type: got %q, want empty", info.Type)
	}
}

func TestShutdownReason(t *testing.T) {
	tests := []struct {
		cause error
		want  string
	}{
		{shutdownSignal{sig: syscall.SIGINT}, "SIGINT"},
		{shutdownSignal{sig: syscall.SIGTERM}, "SIGTERM"},
		{shutdownSignal{sig: syscall.SIGHUP}, "UNKNOWN"},
		{errConsoleQuit, "CONSOLE"},
		{fmt.Errorf("wrapped: %w", errConsoleQuit), "CONSOLE"},
		{nil, "UNKNOWN"},
	}
	for _, tt := range tests {
		ctx, cancel := context.WithCancelCause(context.Background())
		cancel(tt.cause)
		if got := shutdownReason(ctx); got != tt.want {
			t.Errorf("shutdownReason(%v): got %q, want %q", tt.cause, got, tt.want)
		}
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Tick = 5 * time.Millisecond
	cfg.HTTPAddr = ""
	cfg.Sound.Command = []string{"kit-booth-test-no-such-player"}
	return cfg
}

func TestRunBoothNeedsBroker(t *testing.T) {
	err := runBooth(context.Background(), testConfig(t), nil, &bytes.Buffer{})
	require.ErrorContains(t, err, "mqtt.broker")
}

func TestRunBoothConsoleQuits(t *testing.T) {
	var out bytes.Buffer
	done := make(chan error, 1)
	go func() {
		done <- runBooth(context.Background(), testConfig(t), strings.NewReader("e T1\nc C1\nq\n"), &out)
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("console run did not stop after q")
	}
}

func TestRunBoothConsoleStopsOnCancel(t *testing.T) {
	pr, pw, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() { pw.Close(); pr.Close() })

	ctx, cancel := context.WithCancelCause(context.Background())
	done := make(chan error, 1)
	go func() { done <- runBooth(ctx, testConfig(t), pr, &bytes.Buffer{}) }()

	time.Sleep(20 * time.Millisecond)
	cancel(shutdownSignal{sig: syscall.SIGTERM})
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("console run did not stop after cancel")
	}
}

func TestLookupCommand(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method", http.StatusMethodNotAllowed)
			return
		}
		w.Write([]byte(`{"access_token":"tok"}`))
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "JWT tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("uid") != "c357b37d" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("alice\n"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	path := filepath.Join(t.TempDir(), "kit-booth.yaml")
	yaml := "member:\n  base_url: " + srv.URL + "\n  username: booth\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv(config.PasswordEnv, "secret")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"lookup", "195,87,179,125", "--config", path})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		configPath = ""
	})

	require.NoError(t, rootCmd.Execute())
	require.Equal(t, "alice\n", out.String())
}

func TestLoadConfigLogLevel(t *testing.T) {
	configPath = filepath.Join(t.TempDir(), "kit-booth.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("tick: 50ms\nlog_level: debug\n"), 0o600))
	t.Cleanup(func() { configPath, logLevel = "", "" })

	cfg, err := loadConfig()
	require.NoError(t, err)
	require.Equal(t, 50*time.Millisecond, cfg.Tick)
	require.Equal(t, "debug", cfg.LogLevel)

	logLevel = "loud"
	_, err = loadConfig()
	require.ErrorContains(t, err, "unknown log level")
	logLevel = "info"
	_, err = loadConfig()
	require.NoError(t, err)
}
