// Package fingerprint produces internally consistent synthetic browser
// identities. Each extraction attempt gets its own Profile; a profile is
// never reused across sessions.
package fingerprint

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/teralink/api/schemas"
)

// maxRegenerations bounds the validate-and-regenerate loop. The pools are
// constructed so a single pass is consistent; the loop exists as a guard
// against future pool edits.
const maxRegenerations = 5

// Generator samples profiles from the package pools. The zero value is not
// usable; construct with NewGenerator.
type Generator struct {
	mu     sync.Mutex
	rng    *rand.Rand
	logger *zap.Logger
}

// NewGenerator returns a generator seeded from the wall clock.
func NewGenerator(logger *zap.Logger) *Generator {
	return NewSeededGenerator(time.Now().UnixNano(), logger)
}

// NewSeededGenerator returns a deterministic generator for tests.
func NewSeededGenerator(seed int64, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		rng:    rand.New(rand.NewSource(seed)),
		logger: logger,
	}
}

// Generate produces a fresh profile. Inconsistent draws are regenerated;
// after maxRegenerations the last draw is repaired field by field so the
// returned profile always passes CheckConsistency.
func (g *Generator) Generate() schemas.Profile {
	g.mu.Lock()
	defer g.mu.Unlock()

	var p schemas.Profile
	for i := 0; i < maxRegenerations; i++ {
		p = g.sample()
		if errs := CheckConsistency(&p); len(errs) == 0 {
			return p
		} else if i == maxRegenerations-1 {
			g.logger.Warn("fingerprint regeneration budget spent, repairing profile",
				zap.Strings("violations", errs))
		}
	}
	repair(&p)
	return p
}

func (g *Generator) sample() schemas.Profile {
	// Windows dominates the desktop population the target expects to see.
	family := "windows"
	if g.rng.Float64() < 0.25 {
		family = "macos"
	}

	cv := chromeVersions[g.rng.Intn(len(chromeVersions))]

	var osv osVersion
	var platform string
	var gl webGLPair
	fonts := append([]string(nil), commonFonts...)
	switch family {
	case "macos":
		osv = macosVersions[g.rng.Intn(len(macosVersions))]
		platform = "MacIntel"
		gl = webGLMac[g.rng.Intn(len(webGLMac))]
		fonts = append(fonts, macFonts...)
	default:
		osv = windowsVersions[g.rng.Intn(len(windowsVersions))]
		platform = "Win32"
		gl = webGLWindows[g.rng.Intn(len(webGLWindows))]
	}
	sort.Strings(fonts)

	tz := g.pickTimezone()
	vp := viewports[g.rng.Intn(len(viewports))]
	taskbar := taskbarHeights[g.rng.Intn(len(taskbarHeights))]

	brands, fullVersions := g.buildBrands(cv)

	dnt := ""
	if g.rng.Float64() < 0.10 {
		dnt = "1"
	}

	p := schemas.Profile{
		UserAgent: fmt.Sprintf(
			"Mozilla/5.0 (%s) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%s.0.0.0 Safari/537.36",
			osv.uaFragment, cv.major),
		Platform:        platform,
		PlatformFamily:  family,
		ChromeMajor:     cv.major,
		ChromeFull:      cv.full,
		PlatformVersion: osv.platformVersion,

		Timezone:       tz.zone,
		Locale:         tz.locale,
		Languages:      append([]string(nil), tz.languages...),
		AcceptLanguage: acceptLanguage(tz.languages),

		ViewportWidth:  vp.width,
		ViewportHeight: vp.height,
		ScreenWidth:    vp.width,
		ScreenHeight:   vp.height + taskbar,
		ColorDepth:     24,
		PixelRatio:     pixelRatios[g.rng.Intn(len(pixelRatios))],

		DeviceMemory:        deviceMemories[g.rng.Intn(len(deviceMemories))],
		HardwareConcurrency: hardwareConcurrencies[g.rng.Intn(len(hardwareConcurrencies))],
		MaxTouchPoints:      0,

		WebGLVendor:   gl.vendor,
		WebGLRenderer: gl.renderer,

		CanvasSeed:     g.rng.Int63(),
		AudioSeed:      g.rng.Float64() * 1e-4,
		TimingJitterMs: g.rng.Float64() * 0.5,

		Brands:          brands,
		FullVersionList: fullVersions,

		Fonts:      fonts,
		Battery:    g.buildBattery(),
		Connection: g.buildConnection(),
		DoNotTrack: dnt,
	}
	if family == "macos" {
		// Retina is the norm on Apple hardware.
		if g.rng.Float64() < 0.8 {
			p.PixelRatio = 2.0
		}
	}
	return p
}

func (g *Generator) pickTimezone() timezoneEntry {
	total := 0.0
	for _, tz := range timezones {
		total += tz.weight
	}
	r := g.rng.Float64() * total
	for _, tz := range timezones {
		r -= tz.weight
		if r <= 0 {
			return tz
		}
	}
	return timezones[0]
}

// buildBrands assembles the sec-ch-ua brand list: the GREASE entry,
// Chromium and Google Chrome, shuffled the way Chrome shuffles them.
func (g *Generator) buildBrands(cv chromeVersion) (brands, full []schemas.Brand) {
	grease := greaseBrands[g.rng.Intn(len(greaseBrands))]
	greaseVersion := []string{"8", "24", "99"}[g.rng.Intn(3)]

	brands = []schemas.Brand{
		{Brand: grease, Version: greaseVersion},
		{Brand: "Chromium", Version: cv.major},
		{Brand: "Google Chrome", Version: cv.major},
	}
	full = []schemas.Brand{
		{Brand: grease, Version: greaseVersion + ".0.0.0"},
		{Brand: "Chromium", Version: cv.full},
		{Brand: "Google Chrome", Version: cv.full},
	}
	g.rng.Shuffle(len(brands), func(i, j int) {
		brands[i], brands[j] = brands[j], brands[i]
		full[i], full[j] = full[j], full[i]
	})
	return brands, full
}

func (g *Generator) buildBattery() schemas.BatterySnapshot {
	charging := g.rng.Float64() < 0.6
	level := 0.3 + g.rng.Float64()*0.69 // never suspiciously exactly 1.0 or near-dead
	b := schemas.BatterySnapshot{Charging: charging, Level: math.Round(level*100) / 100}
	if charging {
		b.ChargingTime = float64(g.rng.Intn(5400) + 600)
		b.DischargingTime = math.Inf(1)
	} else {
		b.ChargingTime = math.Inf(1)
		b.DischargingTime = float64(g.rng.Intn(18000) + 3600)
	}
	return b
}

func (g *Generator) buildConnection() schemas.ConnectionInfo {
	return schemas.ConnectionInfo{
		EffectiveType: connectionTypes[g.rng.Intn(len(connectionTypes))],
		Downlink:      connectionDownlinks[g.rng.Intn(len(connectionDownlinks))],
		RTT:           connectionRTTs[g.rng.Intn(len(connectionRTTs))],
		SaveData:      false,
	}
}

func acceptLanguage(languages []string) string {
	parts := make([]string, 0, len(languages))
	for i, lang := range languages {
		if i == 0 {
			parts = append(parts, lang)
			continue
		}
		q := 1.0 - 0.1*float64(i)
		parts = append(parts, fmt.Sprintf("%s;q=%.1f", lang, q))
	}
	return strings.Join(parts, ",")
}

// CheckConsistency returns the list of cross-field violations in p, empty
// when the profile is coherent. Exported so session setup can assert the
// invariant cheaply.
func CheckConsistency(p *schemas.Profile) []string {
	var errs []string

	switch p.PlatformFamily {
	case "windows":
		if p.Platform != "Win32" {
			errs = append(errs, fmt.Sprintf("windows profile has platform %q", p.Platform))
		}
		if !strings.Contains(p.UserAgent, "Windows NT") {
			errs = append(errs, "windows profile user agent lacks Windows NT token")
		}
		if !strings.Contains(p.WebGLRenderer, "ANGLE") {
			errs = append(errs, fmt.Sprintf("windows profile has non-ANGLE renderer %q", p.WebGLRenderer))
		}
	case "macos":
		if p.Platform != "MacIntel" {
			errs = append(errs, fmt.Sprintf("macos profile has platform %q", p.Platform))
		}
		if !strings.Contains(p.UserAgent, "Macintosh") {
			errs = append(errs, "macos profile user agent lacks Macintosh token")
		}
		if strings.Contains(p.WebGLRenderer, "Direct3D") {
			errs = append(errs, fmt.Sprintf("macos profile has Direct3D renderer %q", p.WebGLRenderer))
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown platform family %q", p.PlatformFamily))
	}

	if !strings.Contains(p.UserAgent, "Chrome/"+p.ChromeMajor+".") {
		errs = append(errs, fmt.Sprintf("user agent does not carry chrome major %s", p.ChromeMajor))
	}
	if !strings.HasPrefix(p.ChromeFull, p.ChromeMajor+".") {
		errs = append(errs, fmt.Sprintf("full version %s does not match major %s", p.ChromeFull, p.ChromeMajor))
	}
	for _, b := range p.Brands {
		if (b.Brand == "Chromium" || b.Brand == "Google Chrome") && b.Version != p.ChromeMajor {
			errs = append(errs, fmt.Sprintf("brand %s version %s does not match major %s", b.Brand, b.Version, p.ChromeMajor))
		}
	}

	if p.ScreenWidth < p.ViewportWidth || p.ScreenHeight < p.ViewportHeight {
		errs = append(errs, "screen smaller than viewport")
	}
	if p.MaxTouchPoints != 0 {
		errs = append(errs, "desktop profile reports touch points")
	}
	if len(p.Languages) == 0 || p.Languages[0] != p.Locale {
		errs = append(errs, "primary language does not match locale")
	}
	if p.HardwareConcurrency < 2 {
		errs = append(errs, fmt.Sprintf("implausible hardware concurrency %d", p.HardwareConcurrency))
	}
	return errs
}

// repair forces the fields CheckConsistency examines back into agreement,
// preferring the user agent as the source of truth.
func repair(p *schemas.Profile) {
	if strings.Contains(p.UserAgent, "Macintosh") {
		p.PlatformFamily = "macos"
		p.Platform = "MacIntel"
		if strings.Contains(p.WebGLRenderer, "Direct3D") {
			p.WebGLVendor = webGLMac[0].vendor
			p.WebGLRenderer = webGLMac[0].renderer
		}
	} else {
		p.PlatformFamily = "windows"
		p.Platform = "Win32"
		if !strings.Contains(p.WebGLRenderer, "ANGLE") {
			p.WebGLVendor = webGLWindows[0].vendor
			p.WebGLRenderer = webGLWindows[0].renderer
		}
	}
	if p.ScreenWidth < p.ViewportWidth {
		p.ScreenWidth = p.ViewportWidth
	}
	if p.ScreenHeight < p.ViewportHeight {
		p.ScreenHeight = p.ViewportHeight
	}
	p.MaxTouchPoints = 0
	if len(p.Languages) == 0 {
		p.Languages = []string{p.Locale}
	}
	p.Languages[0] = p.Locale
	if p.HardwareConcurrency < 2 {
		p.HardwareConcurrency = 4
	}
}
