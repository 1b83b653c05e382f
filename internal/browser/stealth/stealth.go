// Package stealth masks the automation signals of a headless Chrome session.
// It combines a JavaScript payload injected before any page script with
// CDP-level emulation overrides. Every patch is best-effort: a patch that
// fails is logged and skipped, the session continues with the rest.
package stealth

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/teralink/api/schemas"
	"github.com/xkilldash9x/teralink/internal/config"
)

//go:embed evasions.js
var evasionsJS string

const profilePlaceholder = "__PROFILE__"

// Apply returns the chromedp tasks that arm a fresh session with the given
// profile. Run it against the session context before the first navigation.
func Apply(profile schemas.Profile, cfg config.StealthConfig, logger *zap.Logger) chromedp.Tasks {
	if logger == nil {
		logger = zap.NewNop()
	}

	var tasks chromedp.Tasks

	tasks = append(tasks, bestEffort("inject-evasions", logger, func(ctx context.Context) error {
		script, err := buildScript(profile, cfg)
		if err != nil {
			return err
		}
		_, err = page.AddScriptToEvaluateOnNewDocument(script).Do(ctx)
		return err
	}))

	if cfg.RemoveAutomationFlags {
		tasks = append(tasks, bestEffort("automation-override", logger, func(ctx context.Context) error {
			return emulation.SetAutomationOverride(false).Do(ctx)
		}))
		tasks = append(tasks, bestEffort("focus-emulation", logger, func(ctx context.Context) error {
			return emulation.SetFocusEmulationEnabled(true).Do(ctx)
		}))
	}

	tasks = append(tasks, bestEffort("user-agent-override", logger, func(ctx context.Context) error {
		ua := emulation.SetUserAgentOverride(profile.UserAgent).
			WithAcceptLanguage(profile.AcceptLanguage).
			WithPlatform(profile.Platform)
		if cfg.ClientHints {
			ua.UserAgentMetadata = metadataFor(profile)
		}
		return ua.Do(ctx)
	}))

	tasks = append(tasks, bestEffort("timezone-override", logger, func(ctx context.Context) error {
		return emulation.SetTimezoneOverride(profile.Timezone).Do(ctx)
	}))
	tasks = append(tasks, bestEffort("locale-override", logger, func(ctx context.Context) error {
		return emulation.SetLocaleOverride().WithLocale(profile.Locale).Do(ctx)
	}))
	tasks = append(tasks, bestEffort("hardware-concurrency", logger, func(ctx context.Context) error {
		return emulation.SetHardwareConcurrencyOverride(profile.HardwareConcurrency).Do(ctx)
	}))

	tasks = append(tasks, bestEffort("device-metrics", logger, func(ctx context.Context) error {
		return emulation.SetDeviceMetricsOverride(
			profile.ViewportWidth, profile.ViewportHeight, profile.PixelRatio, false).
			WithScreenWidth(profile.ScreenWidth).
			WithScreenHeight(profile.ScreenHeight).
			WithScreenOrientation(&emulation.ScreenOrientation{
				Type:  emulation.OrientationTypeLandscapePrimary,
				Angle: 0,
			}).
			Do(ctx)
	}))

	return tasks
}

// bestEffort wraps a patch so a failure degrades stealth instead of killing
// the session.
func bestEffort(name string, logger *zap.Logger, fn func(context.Context) error) chromedp.ActionFunc {
	return func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			logger.Warn("stealth patch failed, continuing without it",
				zap.String("patch", name), zap.Error(err))
		}
		return nil
	}
}

// buildScript fills the embedded payload with the profile and patch toggles.
func buildScript(profile schemas.Profile, cfg config.StealthConfig) (string, error) {
	payload := map[string]any{
		"profile": profilePayload(profile),
		"patches": map[string]bool{
			"removeAutomationFlags": cfg.RemoveAutomationFlags,
			"spoofChromeRuntime":    cfg.SpoofChromeRuntime,
			"canvasNoise":           cfg.CanvasNoise,
			"audioNoise":            cfg.AudioNoise,
			"webglSpoof":            cfg.WebGLSpoof,
			"clientHints":           cfg.ClientHints,
			"permissionsSpoof":      cfg.PermissionsSpoof,
			"batterySpoof":          cfg.BatterySpoof,
			"timingJitter":          cfg.TimingJitter,
		},
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding stealth payload: %w", err)
	}
	if !strings.Contains(evasionsJS, profilePlaceholder) {
		return "", fmt.Errorf("evasions payload is missing the %s placeholder", profilePlaceholder)
	}
	return strings.Replace(evasionsJS, profilePlaceholder, string(encoded), 1), nil
}

func profilePayload(p schemas.Profile) map[string]any {
	brands := func(list []schemas.Brand) []map[string]string {
		out := make([]map[string]string, len(list))
		for i, b := range list {
			out[i] = map[string]string{"brand": b.Brand, "version": b.Version}
		}
		return out
	}
	// JSON has no Infinity; -1 marks it and the payload converts back.
	finite := func(v float64) float64 {
		if math.IsInf(v, 1) {
			return -1
		}
		return v
	}
	return map[string]any{
		"platform":            p.Platform,
		"platformFamily":      p.PlatformFamily,
		"platformVersion":     p.PlatformVersion,
		"chromeFull":          p.ChromeFull,
		"languages":           p.Languages,
		"deviceMemory":        p.DeviceMemory,
		"hardwareConcurrency": p.HardwareConcurrency,
		"maxTouchPoints":      p.MaxTouchPoints,
		"doNotTrack":          p.DoNotTrack,
		"screenWidth":         p.ScreenWidth,
		"screenHeight":        p.ScreenHeight,
		"colorDepth":          p.ColorDepth,
		"pixelRatio":          p.PixelRatio,
		"canvasSeed":          p.CanvasSeed,
		"audioSeed":           p.AudioSeed,
		"timingJitterMs":      p.TimingJitterMs,
		"webglVendor":         p.WebGLVendor,
		"webglRenderer":       p.WebGLRenderer,
		"brands":              brands(p.Brands),
		"fullVersionList":     brands(p.FullVersionList),
		"battery": map[string]any{
			"charging":        p.Battery.Charging,
			"chargingTime":    finite(p.Battery.ChargingTime),
			"dischargingTime": finite(p.Battery.DischargingTime),
			"level":           p.Battery.Level,
		},
		"connection": map[string]any{
			"effectiveType": p.Connection.EffectiveType,
			"downlink":      p.Connection.Downlink,
			"rtt":           p.Connection.RTT,
			"saveData":      p.Connection.SaveData,
		},
	}
}

func metadataFor(p schemas.Profile) *emulation.UserAgentMetadata {
	toBrands := func(list []schemas.Brand) []*emulation.UserAgentBrandVersion {
		out := make([]*emulation.UserAgentBrandVersion, len(list))
		for i, b := range list {
			out[i] = &emulation.UserAgentBrandVersion{Brand: b.Brand, Version: b.Version}
		}
		return out
	}
	arch := "x86"
	platform := "Windows"
	if p.PlatformFamily == "macos" {
		arch = "arm"
		platform = "macOS"
	}
	return &emulation.UserAgentMetadata{
		Brands:          toBrands(p.Brands),
		FullVersionList: toBrands(p.FullVersionList),
		Platform:        platform,
		PlatformVersion: p.PlatformVersion,
		Architecture:    arch,
		Bitness:         "64",
		Model:           "",
		Mobile:          false,
	}
}
