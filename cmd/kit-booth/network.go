package main

import (
	"context"
	"os"

	"github.com/sweeney/kit-booth/internal/logger"
	"github.com/sweeney/kit-booth/internal/logic"
	"github.com/sweeney/kit-booth/internal/status"
)

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

// silentSink stands in for the player when no audio command is available.
type silentSink struct {
	ctx context.Context
}

func (s silentSink) Play(clip logic.Sound) error {
	logger.DebugKV(s.ctx, "sound (silent)", "clip", clip)
	return nil
}

func (silentSink) Stop() error { return nil }
