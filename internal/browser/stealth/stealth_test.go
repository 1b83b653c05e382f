package stealth

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/teralink/internal/config"
	"github.com/xkilldash9x/teralink/internal/fingerprint"
)

func allPatches() config.StealthConfig {
	return config.StealthConfig{
		RemoveAutomationFlags: true,
		SpoofChromeRuntime:    true,
		CanvasNoise:           true,
		AudioNoise:            true,
		WebGLSpoof:            true,
		ClientHints:           true,
		PermissionsSpoof:      true,
		BatterySpoof:          true,
		TimingJitter:          true,
	}
}

func TestBuildScriptFillsPlaceholder(t *testing.T) {
	p := fingerprint.NewSeededGenerator(1, zap.NewNop()).Generate()

	script, err := buildScript(p, allPatches())
	require.NoError(t, err)

	assert.NotContains(t, script, profilePlaceholder)
	assert.Contains(t, script, p.WebGLRenderer)
	assert.Contains(t, script, p.Platform)
}

func TestBuildScriptPayloadIsValidJSON(t *testing.T) {
	p := fingerprint.NewSeededGenerator(2, zap.NewNop()).Generate()

	script, err := buildScript(p, allPatches())
	require.NoError(t, err)

	// Pull the injected object back out and decode it.
	start := strings.Index(script, "const cfg = ") + len("const cfg = ")
	end := strings.Index(script[start:], ";\n") + start
	require.Greater(t, end, start)

	var payload struct {
		Profile map[string]any  `json:"profile"`
		Patches map[string]bool `json:"patches"`
	}
	require.NoError(t, json.Unmarshal([]byte(script[start:end]), &payload))

	assert.Len(t, payload.Patches, 9)
	assert.Equal(t, p.WebGLVendor, payload.Profile["webglVendor"])
	assert.Equal(t, float64(p.HardwareConcurrency), payload.Profile["hardwareConcurrency"])
}

func TestBuildScriptEncodesInfinityAsSentinel(t *testing.T) {
	p := fingerprint.NewSeededGenerator(3, zap.NewNop()).Generate()
	p.Battery.Charging = false
	p.Battery.ChargingTime = math.Inf(1)
	p.Battery.DischargingTime = 7200

	script, err := buildScript(p, allPatches())
	require.NoError(t, err)
	assert.Contains(t, script, `"chargingTime":-1`)
	assert.Contains(t, script, `"dischargingTime":7200`)
}

func TestApplyTaskCountTracksToggles(t *testing.T) {
	p := fingerprint.NewSeededGenerator(4, zap.NewNop()).Generate()

	full := Apply(p, allPatches(), zap.NewNop())

	minimal := allPatches()
	minimal.RemoveAutomationFlags = false
	reduced := Apply(p, minimal, zap.NewNop())

	// automation-override and focus-emulation drop out together.
	assert.Equal(t, len(full)-2, len(reduced))
}

func TestMetadataForMatchesPlatformFamily(t *testing.T) {
	g := fingerprint.NewSeededGenerator(5, zap.NewNop())
	for i := 0; i < 50; i++ {
		p := g.Generate()
		md := metadataFor(p)
		if p.PlatformFamily == "macos" {
			assert.Equal(t, "macOS", md.Platform)
			assert.Equal(t, "arm", md.Architecture)
		} else {
			assert.Equal(t, "Windows", md.Platform)
			assert.Equal(t, "x86", md.Architecture)
		}
		assert.False(t, md.Mobile)
		assert.Len(t, md.Brands, len(p.Brands))
	}
}
