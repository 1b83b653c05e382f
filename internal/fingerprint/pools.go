package fingerprint

// Value pools the generator samples from. Pools are grouped by platform
// family where correlation matters: a profile never mixes a macOS user
// agent with a Direct3D renderer string.

type chromeVersion struct {
	major string
	full  string
}

var chromeVersions = []chromeVersion{
	{"124", "124.0.6367.91"},
	{"125", "125.0.6422.60"},
	{"126", "126.0.6478.55"},
	{"127", "127.0.6533.72"},
	{"128", "128.0.6613.84"},
	{"129", "129.0.6668.42"},
	{"130", "130.0.6723.91"},
	{"131", "131.0.6778.85"},
	{"132", "132.0.6834.57"},
}

type osVersion struct {
	uaFragment      string // OS fragment inside the UA string
	platformVersion string // sec-ch-ua-platform-version
}

var windowsVersions = []osVersion{
	{"Windows NT 10.0; Win64; x64", "10.0.0"},
	{"Windows NT 10.0; Win64; x64", "15.0.0"}, // Win11 reports NT 10.0
}

var macosVersions = []osVersion{
	{"Macintosh; Intel Mac OS X 10_15_7", "10.15.7"},
	{"Macintosh; Intel Mac OS X 12_7_1", "12.7.1"},
	{"Macintosh; Intel Mac OS X 13_6_3", "13.6.3"},
	{"Macintosh; Intel Mac OS X 14_2_1", "14.2.1"},
	{"Macintosh; Intel Mac OS X 14_5", "14.5"},
}

type viewport struct {
	width  int64
	height int64
}

var viewports = []viewport{
	{1920, 1080}, {1536, 864}, {1440, 900}, {1366, 768}, {1280, 720},
	{2560, 1440}, {1680, 1050}, {1600, 900}, {1920, 1200}, {1280, 800},
}

// taskbarHeights pads the screen below the viewport.
var taskbarHeights = []int64{0, 40, 48, 56}

type timezoneEntry struct {
	zone      string
	languages []string
	locale    string
	weight    float64
}

var timezones = []timezoneEntry{
	{"America/New_York", []string{"en-US", "en"}, "en-US", 0.12},
	{"America/Los_Angeles", []string{"en-US", "en"}, "en-US", 0.10},
	{"America/Chicago", []string{"en-US", "en"}, "en-US", 0.06},
	{"Europe/London", []string{"en-GB", "en"}, "en-GB", 0.08},
	{"Europe/Paris", []string{"fr-FR", "fr", "en"}, "fr-FR", 0.04},
	{"Europe/Berlin", []string{"de-DE", "de", "en"}, "de-DE", 0.05},
	{"Asia/Tokyo", []string{"ja-JP", "ja", "en"}, "ja-JP", 0.04},
	{"Asia/Shanghai", []string{"zh-CN", "zh", "en"}, "zh-CN", 0.06},
	{"Asia/Kolkata", []string{"en-IN", "hi-IN", "en"}, "en-IN", 0.15},
	{"Asia/Singapore", []string{"en-SG", "zh-SG", "en"}, "en-SG", 0.03},
	{"Australia/Sydney", []string{"en-AU", "en"}, "en-AU", 0.03},
	{"Europe/Moscow", []string{"ru-RU", "ru", "en"}, "ru-RU", 0.03},
	{"America/Sao_Paulo", []string{"pt-BR", "pt", "en"}, "pt-BR", 0.04},
	{"Asia/Seoul", []string{"ko-KR", "ko", "en"}, "ko-KR", 0.03},
	{"Asia/Dubai", []string{"ar-AE", "en-AE", "en"}, "ar-AE", 0.02},
	{"Asia/Jakarta", []string{"id-ID", "id", "en"}, "id-ID", 0.05},
	{"Europe/Amsterdam", []string{"nl-NL", "nl", "en"}, "nl-NL", 0.02},
	{"Asia/Manila", []string{"en-PH", "fil-PH", "en"}, "en-PH", 0.05},
}

type webGLPair struct {
	vendor   string
	renderer string
}

var webGLWindows = []webGLPair{
	{"Google Inc. (NVIDIA)", "ANGLE (NVIDIA, NVIDIA GeForce RTX 3060 Direct3D11 vs_5_0 ps_5_0, D3D11)"},
	{"Google Inc. (NVIDIA)", "ANGLE (NVIDIA, NVIDIA GeForce RTX 3070 Direct3D11 vs_5_0 ps_5_0, D3D11)"},
	{"Google Inc. (NVIDIA)", "ANGLE (NVIDIA, NVIDIA GeForce RTX 4060 Direct3D11 vs_5_0 ps_5_0, D3D11)"},
	{"Google Inc. (NVIDIA)", "ANGLE (NVIDIA, NVIDIA GeForce RTX 4070 Direct3D11 vs_5_0 ps_5_0, D3D11)"},
	{"Google Inc. (NVIDIA)", "ANGLE (NVIDIA, NVIDIA GeForce GTX 1660 Super Direct3D11 vs_5_0 ps_5_0, D3D11)"},
	{"Google Inc. (AMD)", "ANGLE (AMD, AMD Radeon RX 6700 XT Direct3D11 vs_5_0 ps_5_0, D3D11)"},
	{"Google Inc. (AMD)", "ANGLE (AMD, AMD Radeon RX 7600 Direct3D11 vs_5_0 ps_5_0, D3D11)"},
	{"Google Inc. (Intel)", "ANGLE (Intel, Intel(R) UHD Graphics 770 Direct3D11 vs_5_0 ps_5_0, D3D11)"},
	{"Google Inc. (Intel)", "ANGLE (Intel, Intel(R) Iris(R) Xe Graphics Direct3D11 vs_5_0 ps_5_0, D3D11)"},
}

var webGLMac = []webGLPair{
	{"Apple Inc.", "Apple M1"},
	{"Apple Inc.", "Apple M1 Pro"},
	{"Apple Inc.", "Apple M2"},
	{"Apple Inc.", "Apple M2 Pro"},
	{"Apple Inc.", "Apple M3"},
	{"Apple Inc.", "Apple M3 Pro"},
	{"Apple Inc.", "AMD Radeon Pro 5500M OpenGL Engine"},
	{"Apple Inc.", "Intel(R) Iris(TM) Plus Graphics OpenGL Engine"},
}

var commonFonts = []string{
	"Arial", "Arial Black", "Calibri", "Cambria", "Comic Sans MS",
	"Consolas", "Courier New", "Georgia", "Helvetica", "Impact",
	"Lucida Console", "Lucida Sans Unicode", "Microsoft Sans Serif",
	"Palatino Linotype", "Segoe UI", "Tahoma", "Times New Roman",
	"Trebuchet MS", "Verdana", "Webdings", "Wingdings",
}

var macFonts = []string{
	"Helvetica Neue", "Menlo", "Monaco", "San Francisco", "SF Pro",
	"Avenir", "Avenir Next", "Futura", "Gill Sans", "Optima",
}

// Weighted towards 8-16GB and common core counts.
var deviceMemories = []int64{4, 8, 8, 16, 16, 32}
var hardwareConcurrencies = []int64{4, 6, 8, 8, 12, 16}
var pixelRatios = []float64{1.0, 1.0, 1.25, 1.25, 1.5, 2.0}

var connectionTypes = []string{"4g", "4g", "4g", "3g"}
var connectionDownlinks = []float64{10, 10, 5.65, 2.8, 1.4}
var connectionRTTs = []int64{50, 100, 150, 200}

var greaseBrands = []string{`Not=A?Brand`, `Not A(Brand`, `Not/A)Brand`}
