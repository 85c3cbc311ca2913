package inbound

import (
	"crypto/md5" //nolint:gosec // fingerprint only, not a security boundary
	"encoding/hex"
	"strings"

	"github.com/shandysiswandi/adminauth/internal/auth/entity"
	"github.com/shandysiswandi/adminauth/internal/pkg/router"
)

const unknownDevice = "Unknown Device"

// deviceInfo fingerprints the caller from its user agent and resolved IP.
func deviceInfo(r *router.Request) entity.DeviceInfo {
	ua := strings.TrimSpace(r.UserAgent())
	if ua == "" {
		ua = unknownDevice
	}
	ip := r.ClientIP()

	sum := md5.Sum([]byte(ua + "-" + ip)) //nolint:gosec // see import
	return entity.DeviceInfo{
		DeviceID:   "device_" + hex.EncodeToString(sum[:])[:16],
		DeviceName: detectDeviceName(ua),
		UserAgent:  ua,
		IPAddress:  ip,
	}
}

type deviceRule struct {
	name    string
	matches func(ua string) bool
}

func has(subs ...string) func(string) bool {
	return func(ua string) bool {
		for _, s := range subs {
			if !strings.Contains(ua, s) {
				return false
			}
		}
		return true
	}
}

func hasAny(subs ...string) func(string) bool {
	return func(ua string) bool {
		for _, s := range subs {
			if strings.Contains(ua, s) {
				return true
			}
		}
		return false
	}
}

// First match wins.
var deviceRules = []deviceRule{
	{"iPhone", has("iphone")},
	{"iPad", has("ipad")},
	{"iPod", has("ipod")},
	{"Android Phone", has("android", "mobile")},
	{"Android Tablet", has("android")},
	{"Windows Phone", has("windows", "phone")},
	{"Windows Tablet", has("windows", "tablet")},
	{"Windows PC", has("windows")},
	{"Mac", hasAny("macintosh", "mac os", "macos")},
	{"Linux PC", has("linux")},
	{"Postman", has("postman")},
	{"Insomnia", has("insomnia")},
	{"cURL", has("curl")},
	{"Wget", has("wget")},
	{"Mobile Device", hasAny("mobile", "mobi")},
}

func detectDeviceName(userAgent string) string {
	ua := strings.ToLower(userAgent)
	for _, rule := range deviceRules {
		if rule.matches(ua) {
			return rule.name
		}
	}
	return unknownDevice
}
