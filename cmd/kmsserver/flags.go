package main

import (
	"github.com/ruteri/liveness-gated-kms/cmd/flags"
	"github.com/urfave/cli/v2"
)

var KmsServiceLogFlag = flags.LogServiceFlagFn("kms")

var ListenHostFlag = &cli.StringFlag{
	Name:  "listen-host",
	Value: "0.0.0.0",
	Usage: "host to listen on for the KMS API",
}
var PortFlag = &cli.IntFlag{
	Name:    "port",
	EnvVars: []string{"FISH_KMS_PORT"},
	Value:   8000,
	Usage:   "port to listen on for the KMS API",
}
var UnlockWindowFlag = &cli.IntFlag{
	Name:    "unlock-window-seconds",
	EnvVars: []string{"UNLOCK_WINDOW_SECONDS"},
	Value:   600,
	Usage:   "how long an unlock permits decryption, in seconds",
}
var StateLocationFlag = &cli.StringSliceFlag{
	Name:    "state-location",
	EnvVars: []string{"FISH_KMS_STATE"},
	Value:   cli.NewStringSlice("file://./state.json"),
	Usage:   "state document location (file://, s3://, vault://, mem://); repeat to replicate",
}

var EntropyModeFlag = &cli.StringFlag{
	Name:    "entropy-mode",
	EnvVars: []string{"ENTROPY_MODE"},
	Value:   "external",
	Usage:   "entropy source: 'external' (alias 'camera') or 'fallback' (alias 'demo')",
}
var CaptureDeviceFlag = &cli.StringFlag{
	Name:    "capture-device",
	EnvVars: []string{"CAMERA_INDEX"},
	Value:   "0",
	Usage:   "device reference passed to the motion capture collaborator",
}
var CaptureEndpointFlag = &cli.StringFlag{
	Name:    "capture-endpoint",
	EnvVars: []string{"CAPTURE_ENDPOINT"},
	Usage:   "base URL of the motion capture collaborator; empty always falls back",
}
var CaptureTimeoutFlag = &cli.DurationFlag{
	Name:  "capture-timeout",
	Value: entropyDefaults.Timeout,
	Usage: "maximum duration of one capture before falling back",
}
var CaptureFramesFlag = &cli.IntFlag{
	Name:  "capture-frames",
	Value: entropyDefaults.Frames,
	Usage: "frames requested per capture",
}
var CaptureIntervalFlag = &cli.DurationFlag{
	Name:  "capture-interval",
	Value: entropyDefaults.Interval,
	Usage: "minimum delay between captured frames",
}
var LiveThresholdFlag = &cli.Float64Flag{
	Name:  "live-threshold",
	Value: entropyDefaults.LiveThreshold,
	Usage: "motion score at or above which a sample is LIVE",
}
var LowThresholdFlag = &cli.Float64Flag{
	Name:  "low-threshold",
	Value: entropyDefaults.LowThreshold,
	Usage: "motion score below which a scene is logged as static",
}

var UnlockRateFlag = &cli.Float64Flag{
	Name:  "unlock-rate",
	Value: 1,
	Usage: "unlock requests per second allowed per client address, 0 disables",
}
var UnlockBurstFlag = &cli.IntFlag{
	Name:  "unlock-burst",
	Value: 5,
	Usage: "unlock burst allowed per client address",
}

var KmsFlags = []cli.Flag{
	flags.APIKeyFlag,
	ListenHostFlag,
	PortFlag,
	UnlockWindowFlag,
	StateLocationFlag,
	EntropyModeFlag,
	CaptureDeviceFlag,
	CaptureEndpointFlag,
	CaptureTimeoutFlag,
	CaptureFramesFlag,
	CaptureIntervalFlag,
	LiveThresholdFlag,
	LowThresholdFlag,
	UnlockRateFlag,
	UnlockBurstFlag,
	KmsServiceLogFlag,
}
