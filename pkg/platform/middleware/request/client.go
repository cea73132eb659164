package request

import (
	"github.com/mssola/useragent"
)

const unknownClient = "unknown"

// ClientName condenses a User-Agent header into "Browser on OS" for access
// logs. Bots and tools without OS information keep just their name.
func ClientName(userAgent string) string {
	if userAgent == "" {
		return unknownClient
	}
	ua := useragent.New(userAgent)
	name, _ := ua.Browser()
	if name == "" {
		return unknownClient
	}
	if ua.Bot() {
		return "bot: " + name
	}
	if os := ua.OSInfo().Name; os != "" {
		return name + " on " + os
	}
	return name
}
