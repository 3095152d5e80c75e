// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import "regexp"

// excludedLinks matches links that never lead to readable content: auth
// and account pages, commerce flows, settings, error pages, API endpoints
// and binary or asset files.
var excludedLinks = compileAll(
	`\?.*=`,
	`/(login|signup|register|sign-in|sign-up|logout|auth|account|user|profile|credits)/?`,
	`/(cart|checkout|order|payment|invoice|billing)/?`,
	`/(settings|preferences|config|admin|dashboard|privacy)/?`,
	`/(newsletter|subscribe|unsubscribe|follow|share|like|gstatic)/?`,
	`/(track|tracking|history)/?`,
	`/(error|404|403|500|maintenance|unavailable)/?`,
	`^/api(/|$)|/api/v\d+(/|$)`,
	`/(captcha|verify|verification)/?`,
	`/(download|upload)/?`,
	`/(preview|print|css|js)/?`,
	`(jpg|jpe?g|png|gif|svg|webp|mp4|webm|zip|tar\.gz|exe|dmg|iso|apk|docx?|xlsx?|pptx?|css|js|xml|json|woff|woff2|ico)`,
)

var socialLinks = compileAll(
	`facebook\.`, `x\.`, `twitter\.`, `instagram\.`, `linkedin\.`,
	`youtube\.`, `reddit\.`, `discord\.`, `tiktok\.`, `pinterest\.`,
)

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}

// FilterLinks drops links matching the exclusion patterns, and social
// media links when excludeSocial is set. Order is preserved.
func FilterLinks(links []string, excludeSocial bool) []string {
	var out []string
	for _, l := range links {
		if matchesAny(excludedLinks, l) || (excludeSocial && matchesAny(socialLinks, l)) {
			continue
		}
		out = append(out, l)
	}
	return out
}

func matchesAny(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
