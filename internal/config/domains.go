package config

// DefaultSupportedDomains lists the terabox-family hosts a share URL may
// belong to. Subdomains of any entry are accepted as well.
var DefaultSupportedDomains = []string{
	"terabox.com", "1024tera.com", "teraboxapp.com", "4funbox.co",
	"mirrobox.com", "nephobox.com", "freeterabox.com", "momerybox.com",
	"teraboxlink.com", "terafileshare.com", "terabox.fun", "terabox.app",
	"1024terabox.com", "teraboxshare.com", "terabox.tech", "gcloud.live",
}

// DefaultCDNPatterns are substrings that identify terabox CDN hosts serving
// file payloads rather than page assets.
var DefaultCDNPatterns = []string{
	"cdnst", "d.terabox", "data.terabox", "download.terabox",
	"cdn.terabox", "st.terabox", "d2.terabox", "d3.terabox",
	"d4.terabox", "d5.terabox", "stream", "datadown", "nxcdn",
	"dxcdn", "hot.terabox", "cold.terabox", "jp-store", "asia-store",
	"us-store", "eu-store", "video-cdn", "file-cdn", "media-cdn",
	"storage", "dl.terabox", "get.terabox", "fetch.terabox",
	"pan.terabox", "pcs.terabox", "c.terabox", "f.terabox",
}

// DefaultSignatureParams are query parameters whose presence marks a URL as
// signed and time-limited.
var DefaultSignatureParams = []string{
	"sign", "time", "timestamp", "expires", "expiry", "exp",
	"token", "auth", "signature", "key", "secret", "sig",
	"fid", "uk", "devuid", "dp-logid", "shareid", "fsid",
	"rand", "vuk", "app_id", "check_blue_name", "clienttype",
	"channel", "version", "web", "dp-callid", "scene",
}
