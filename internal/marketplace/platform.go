package marketplace

import (
	"regexp"
	"strings"
)

const (
	PlatformPC          = "PC"
	PlatformPlayStation = "PlayStation"
	PlatformXbox        = "Xbox"
	PlatformSwitch      = "Switch"
	PlatformMobile      = "Mobile"
)

type platformAlias struct {
	platform string
	// substrings match anywhere in the token; exact ones only whole tokens.
	substrings []string
	exact      []string
}

// Checked in order; the first hit wins.
var platformAliases = []platformAlias{
	{PlatformPlayStation, []string{"playstation", "ps4", "ps5", "psn"}, []string{"ps"}},
	{PlatformXbox, []string{"xbox", "xbl", "xsx"}, []string{"xb", "xb1"}},
	{PlatformSwitch, []string{"switch", "nintendo"}, []string{"nsw"}},
	{PlatformMobile, []string{"mobile", "android", "iphone", "ipad"}, []string{"ios"}},
	{PlatformPC, []string{"windows", "epic", "steam", "computer"}, []string{"pc", "mac"}},
}

var tagPrefix = regexp.MustCompile(`^\s*\[([^\]]*)\]`)

// NormalizePlatform maps a raw platform token to the fixed device
// vocabulary, or "" when it is not recognised.
func NormalizePlatform(raw string) string {
	token := strings.ToLower(strings.TrimSpace(raw))
	if token == "" {
		return ""
	}
	for _, a := range platformAliases {
		for _, e := range a.exact {
			if token == e {
				return a.platform
			}
		}
		for _, s := range a.substrings {
			if strings.Contains(token, s) {
				return a.platform
			}
		}
	}
	return ""
}

// NameTags returns the tokens of a "[TAG1,TAG2]" prefix in a product name.
func NameTags(name string) []string {
	m := tagPrefix.FindStringSubmatch(name)
	if m == nil {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(m[1], ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// productPlatforms collects the normalized platforms of a product from its
// explicit field (comma or slash separated) and its name tags.
func productPlatforms(platform, name string) []string {
	seen := make(map[string]bool)
	var out []string

	add := func(raw string) {
		if p := NormalizePlatform(raw); p != "" && !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, t := range strings.FieldsFunc(platform, func(r rune) bool { return r == ',' || r == '/' }) {
		add(t)
	}
	for _, t := range NameTags(name) {
		add(t)
	}
	return out
}
