package fingerprint

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/teralink/api/schemas"
)

func TestGenerateIsInternallyConsistent(t *testing.T) {
	g := NewSeededGenerator(42, zap.NewNop())
	for i := 0; i < 500; i++ {
		p := g.Generate()
		errs := CheckConsistency(&p)
		require.Empty(t, errs, "profile %d inconsistent: %v", i, errs)
	}
}

func TestGenerateSameSeedSameSequence(t *testing.T) {
	a := NewSeededGenerator(7, zap.NewNop())
	b := NewSeededGenerator(7, zap.NewNop())
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Generate(), b.Generate())
	}
}

func TestGenerateProfilesAreDistinct(t *testing.T) {
	g := NewSeededGenerator(99, zap.NewNop())
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		p := g.Generate()
		key := fmt.Sprintf("%s|%s|%d|%d|%d", p.UserAgent, p.Timezone, p.CanvasSeed, p.ViewportWidth, p.HardwareConcurrency)
		assert.False(t, seen[key], "duplicate profile at draw %d", i)
		seen[key] = true
	}
}

func TestGeneratePlatformCorrelation(t *testing.T) {
	g := NewSeededGenerator(1, zap.NewNop())
	sawWindows, sawMac := false, false
	for i := 0; i < 200; i++ {
		p := g.Generate()
		switch p.PlatformFamily {
		case "windows":
			sawWindows = true
			assert.Contains(t, p.WebGLRenderer, "ANGLE")
			assert.Equal(t, "Win32", p.Platform)
		case "macos":
			sawMac = true
			assert.NotContains(t, p.WebGLRenderer, "Direct3D")
			assert.Equal(t, "MacIntel", p.Platform)
		default:
			t.Fatalf("unexpected platform family %q", p.PlatformFamily)
		}
	}
	assert.True(t, sawWindows, "windows never drawn in 200 samples")
	assert.True(t, sawMac, "macos never drawn in 200 samples")
}

func TestGenerateClientHintBrands(t *testing.T) {
	g := NewSeededGenerator(3, zap.NewNop())
	p := g.Generate()

	require.Len(t, p.Brands, 3)
	require.Len(t, p.FullVersionList, 3)

	names := make(map[string]string)
	for _, b := range p.Brands {
		names[b.Brand] = b.Version
	}
	assert.Equal(t, p.ChromeMajor, names["Chromium"])
	assert.Equal(t, p.ChromeMajor, names["Google Chrome"])

	for _, b := range p.FullVersionList {
		if b.Brand == "Chromium" || b.Brand == "Google Chrome" {
			assert.Equal(t, p.ChromeFull, b.Version)
		}
	}
}

func TestAcceptLanguageQualityOrdering(t *testing.T) {
	got := acceptLanguage([]string{"en-US", "en", "fr"})
	assert.Equal(t, "en-US,en;q=0.9,fr;q=0.8", got)
}

func TestCheckConsistencyFlagsMismatches(t *testing.T) {
	g := NewSeededGenerator(11, zap.NewNop())
	p := g.Generate()

	p.Platform = "Linux x86_64"
	p.MaxTouchPoints = 5
	p.ScreenWidth = p.ViewportWidth - 1

	errs := CheckConsistency(&p)
	assert.GreaterOrEqual(t, len(errs), 3)
}

func TestRepairRestoresConsistency(t *testing.T) {
	p := schemas.Profile{
		UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_5) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		PlatformFamily: "windows",
		Platform:       "Win32",
		ChromeMajor:    "131",
		ChromeFull:     "131.0.6778.85",
		WebGLRenderer:  "ANGLE (NVIDIA, NVIDIA GeForce RTX 3060 Direct3D11 vs_5_0 ps_5_0, D3D11)",
		Locale:         "en-US",
		Languages:      []string{"en-US", "en"},
		ViewportWidth:  1920, ViewportHeight: 1080,
		ScreenWidth: 1280, ScreenHeight: 720,
		HardwareConcurrency: 1,
		MaxTouchPoints:      10,
	}
	repair(&p)
	assert.Empty(t, CheckConsistency(&p))
	assert.Equal(t, "macos", p.PlatformFamily)
}
