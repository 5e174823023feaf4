package prepare

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	urlPattern    = regexp.MustCompile(`(?:http|www)[^\pZ\s]+`)
	markerPattern = regexp.MustCompile(`(?i)\[[\pZ\s]*(?:removed|deleted|removido|deletado)[\pZ\s]*\]`)
	quotePattern  = regexp.MustCompile(`(?m)^[\pZ\s]*>[\pZ\s]*`)
	spacePattern  = regexp.MustCompile(`[\pZ\s]+`)
)

const maxCleanPasses = 8

// LightClean removes URLs, Reddit removal markers and quote markers, then
// collapses whitespace and NFC-normalizes. Cleaning is repeated until
// stable, so LightClean(LightClean(s)) == LightClean(s).
func LightClean(text string) string {
	for i := 0; i < maxCleanPasses; i++ {
		cleaned := cleanOnce(text)
		if cleaned == text {
			break
		}
		text = cleaned
	}
	return text
}

func cleanOnce(text string) string {
	text = urlPattern.ReplaceAllString(text, "")
	text = markerPattern.ReplaceAllString(text, "")
	text = quotePattern.ReplaceAllString(text, "")
	text = spacePattern.ReplaceAllString(text, " ")
	return norm.NFC.String(strings.TrimSpace(text))
}
