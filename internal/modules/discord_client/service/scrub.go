package service

import (
	"regexp"
	"strings"
	"time"

	"mirror_trader/internal/models"
)

var (
	signalPrefixPattern = regexp.MustCompile(`(?i)(?:^|\W+)(BTO|STC)(?:$|\W+)`)
	guildTagPattern     = regexp.MustCompile(`<@&\d+>`)

	emojiPattern = regexp.MustCompile(`[\x{1F300}-\x{1F6FF}\x{1F900}-\x{1F9FF}\x{2600}-\x{27B0}\x{2B00}-\x{2BEF}\x{1F1E0}-\x{1F1FF}\x{FE0F}\x{200D}]`)
)

// scrubMessage normalizes a raw channel message: classifies the signal
// from the embed colour or the leading keyword, strips the alert-bot
// decorations and drops recap noise.
func scrubMessage(m rawMessage) models.ChannelMessage {
	out := models.ChannelMessage{Author: m.Author.Username}

	if ts, err := time.Parse(time.RFC3339, m.Timestamp); err == nil {
		out.Timestamp = ts.Local()
	}

	switch {
	case len(m.Embeds) > 0 && strings.EqualFold(m.Embeds[0].Type, "rich"):
		out.Hint = classifyColor(m.Embeds[0].Color)
		out.Content = strings.TrimSpace(signalPrefixPattern.ReplaceAllString(m.Embeds[0].Description, ""))

	case m.Content != "":
		// No embed border to go by; the first word decides.
		first := strings.ToUpper(strings.Fields(m.Content)[0])
		if strings.Contains(first, "STC") || strings.Contains(first, "STOP") || strings.Contains(first, "SOLD") {
			out.Hint = models.HintClose
		} else {
			out.Hint = models.HintOpen
		}
		out.Content = strings.TrimSpace(signalPrefixPattern.ReplaceAllString(m.Content, ""))
	}

	out.Content = strings.TrimSpace(guildTagPattern.ReplaceAllString(out.Content, ""))

	if strings.Contains(strings.ToUpper(out.Content), "DISCLAIMER") {
		if idx := strings.Index(out.Content, "\n\n"); idx >= 0 {
			out.Content = out.Content[:idx]
		}
	}

	out.Content = strings.ReplaceAll(out.Content, "  ", " ")

	if isRecapNoise(out.Content) {
		out.Hint = models.HintNone
	}

	return out
}

// isRecapNoise detects daily-summary and error messages that would
// otherwise parse as alerts.
func isRecapNoise(content string) bool {
	upper := strings.ToUpper(content)

	if strings.Contains(upper, "404 NOT FOUND") || strings.Contains(upper, "RECAP") {
		return true
	}
	if strings.Count(content, "%") > 1 && len(emojiPattern.FindAllString(content, 2)) > 1 {
		return true
	}
	if strings.Contains(upper, "WIN") &&
		(strings.Contains(upper, "LOSER") || strings.Contains(upper, "LOSS")) {
		return true
	}
	return false
}

// classifyColor buckets an embed border colour by hue: the green band
// marks opens, the red band closes.
func classifyColor(c int) models.SignalHint {
	r := float64((c>>16)&0xff) / 255
	g := float64((c>>8)&0xff) / 255
	b := float64(c&0xff) / 255

	max := r
	if g > max {
		max = g
	}
	if b > max {
		max = b
	}
	min := r
	if g < min {
		min = g
	}
	if b < min {
		min = b
	}

	// Greys carry no signal.
	if max == 0 || (max-min)/max < 0.15 {
		return models.HintNone
	}

	var hue float64
	d := max - min
	switch max {
	case r:
		hue = 60 * ((g - b) / d)
	case g:
		hue = 60 * (2 + (b-r)/d)
	default:
		hue = 60 * (4 + (r-g)/d)
	}
	if hue < 0 {
		hue += 360
	}

	switch {
	case hue < 30 || hue >= 330:
		return models.HintClose
	case hue >= 90 && hue < 150:
		return models.HintOpen
	default:
		return models.HintNone
	}
}
