// Package schemas defines the shared value types exchanged between the
// fingerprint generator, the browser layer, the extraction pipeline and the
// recovery controller. Types here are plain data; behavior lives in the
// internal packages.
package schemas

import "time"

// Profile is one synthetic browser identity. It is generated once per
// extraction attempt, applied to exactly one browser session and discarded
// with it. All fields are internally consistent with the platform family
// (a macOS user agent never carries an ANGLE/Direct3D renderer, desktop
// profiles never report touch points, and so on).
type Profile struct {
	// Identity
	UserAgent       string
	Platform        string // navigator.platform ("Win32", "MacIntel")
	PlatformFamily  string // "windows" or "macos"
	ChromeMajor     string
	ChromeFull      string
	PlatformVersion string // client-hints platform version

	// Locale
	Timezone       string
	Locale         string
	Languages      []string
	AcceptLanguage string

	// Geometry
	ViewportWidth  int64
	ViewportHeight int64
	ScreenWidth    int64
	ScreenHeight   int64
	ColorDepth     int64
	PixelRatio     float64

	// Hardware
	DeviceMemory        int64
	HardwareConcurrency int64
	MaxTouchPoints      int64

	// Graphics
	WebGLVendor   string
	WebGLRenderer string

	// Noise seeds. CanvasSeed perturbs canvas readback, AudioSeed perturbs
	// AudioBuffer output, TimingJitterMs offsets performance.now by a
	// sub-millisecond constant.
	CanvasSeed     int64
	AudioSeed      float64
	TimingJitterMs float64

	// Client hints
	Brands          []Brand
	FullVersionList []Brand

	Fonts      []string
	Battery    BatterySnapshot
	Connection ConnectionInfo
	DoNotTrack string // "" when unset, "1" when advertised
}

// Brand is one sec-ch-ua brand/version pair.
type Brand struct {
	Brand   string
	Version string
}

// BatterySnapshot mirrors the Battery Status API shape reported to the page.
type BatterySnapshot struct {
	Charging        bool
	ChargingTime    float64 // seconds; 0 when full, +Inf when discharging
	DischargingTime float64 // seconds; +Inf when charging
	Level           float64 // 0.0 - 1.0
}

// ConnectionInfo mirrors the Network Information API shape.
type ConnectionInfo struct {
	EffectiveType string
	Downlink      float64
	RTT           int64
	SaveData      bool
}

// Layer identifies which pipeline layer produced an attempt or result.
type Layer string

const (
	LayerNetwork Layer = "network-interception"
	LayerJSState Layer = "js-state"
	LayerDOM     Layer = "dom-automation"
)

// Outcome classifies how a single layer attempt ended.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeNotFound Outcome = "not-found"
	OutcomeBlocked  Outcome = "blocked"
	OutcomeTimedOut Outcome = "timed-out"
)

// Attempt records one pipeline layer execution against one browser session.
type Attempt struct {
	Layer     Layer
	Outcome   Outcome
	Duration  time.Duration
	Signal    string // diagnostic marker, e.g. the challenge selector that fired
	Candidate *Candidate
}

// Candidate is a download URL captured by a layer before resolver
// validation. Filename and Size are best-effort and may be zero.
type Candidate struct {
	URL         string
	Filename    string
	Size        int64
	ContentType string
}

// Result is the accepted output of a successful extraction. Immutable once
// returned.
type Result struct {
	URL      string
	Filename string
	Size     int64
	FileType string
	Layer    Layer
	ShareID  string
}
