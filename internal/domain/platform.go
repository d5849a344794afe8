package domain

import "strings"

// Platform represents the source platform of a media URL
type Platform string

const (
	PlatformYouTube          Platform = "youtube"
	PlatformInstagram        Platform = "instagram"
	PlatformTwitter          Platform = "twitter"         // Twitter/X
	PlatformFacebookOrTikTok Platform = "facebook_tiktok" // Login-walled, always rejected
	PlatformUnsupported      Platform = "unsupported"
)

// classificationRule maps a set of URL substrings to a platform
type classificationRule struct {
	platform Platform
	needles  []string
}

// classificationTable is evaluated top-down, first match wins.
// Adding a platform is one row here plus one handler in the dispatcher.
var classificationTable = []classificationRule{
	{PlatformYouTube, []string{"youtube.com", "youtu.be"}},
	{PlatformInstagram, []string{"instagram.com"}},
	{PlatformTwitter, []string{"twitter.com", "x.com"}},
	{PlatformFacebookOrTikTok, []string{"facebook.com", "fb.watch", "tiktok.com"}},
}

// Classify detects the platform of a URL by case-sensitive substring match
func Classify(url string) Platform {
	for _, rule := range classificationTable {
		for _, needle := range rule.needles {
			if strings.Contains(url, needle) {
				return rule.platform
			}
		}
	}
	return PlatformUnsupported
}

// DisplayName returns the human-readable platform name used in client messages
func (p Platform) DisplayName() string {
	switch p {
	case PlatformYouTube:
		return "YouTube"
	case PlatformInstagram:
		return "Instagram"
	case PlatformTwitter:
		return "Twitter"
	case PlatformFacebookOrTikTok:
		return "Facebook/TikTok"
	default:
		return "Unsupported"
	}
}

// String implements fmt.Stringer
func (p Platform) String() string {
	return string(p)
}
