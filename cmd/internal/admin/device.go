package admin

import (
	"strings"

	"github.com/mssola/useragent"
)

// DeviceSummary condenses a User-Agent header into a short display string
// like "Chrome 120 / Mac OS X (desktop)". Empty input yields "".
func DeviceSummary(ua string) string {
	ua = strings.TrimSpace(ua)
	if ua == "" {
		return ""
	}

	parsed := useragent.New(ua)

	browser, version := parsed.Browser()
	if version != "" {
		if i := strings.IndexByte(version, '.'); i > 0 {
			version = version[:i]
		}
		browser = browser + " " + version
	}

	osInfo := parsed.OSInfo()
	osName := osInfo.Name

	kind := "desktop"
	switch {
	case parsed.Bot():
		kind = "bot"
	case parsed.Mobile():
		kind = "mobile"
	}

	var b strings.Builder
	b.WriteString(browser)
	if osName != "" {
		b.WriteString(" / ")
		b.WriteString(osName)
	}
	b.WriteString(" (")
	b.WriteString(kind)
	b.WriteString(")")
	return b.String()
}
