package alerts

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"mirror_trader/internal/models"
)

// The pipeline is strip-after-match: each field is pulled from the text
// by the first match of its pattern and the match is removed before the
// next field is searched.
var (
	tickerPattern    = regexp.MustCompile(`[A-Z]+`)
	strikePattern    = regexp.MustCompile(`(\d+[.,]+\s*\d+|[.,]+\s*\d+)|(\d+)`)
	directionPattern = regexp.MustCompile(`(?i)(CALL|PUT|C|P)`)
	pricePattern     = regexp.MustCompile(`(\d+[.,]+\s*\d+|[.,]+\s*\d+)`)
	expDatePattern   = regexp.MustCompile(`(?i)(week\w+|\d+DTE|tomorrow|today)|(\d+/\d+/\d+|\d+/\d+)|((?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\w+)`)
	stopPattern      = regexp.MustCompile(`(\d+[.,]+\s*\d+|[.,]+\s*\d+)|(\d*%)`)
	riskPattern      = regexp.MustCompile(`(?i)\Wday.\w+|scalp`)
	closeAmtPattern  = regexp.MustCompile(`(?i)((?:stop|sl|all|out|profit|remaining).)|(another|most|half|some|las.|one|two|three|four|five|six|seven|eight|nine)|(\d+[.,/]\d+|\d+)`)

	fractionJunk = regexp.MustCompile(`[^\w\s/]`)
	leadingInt   = regexp.MustCompile(`^\d+`)
)

var spelledNumbers = []string{"ONE", "TWO", "THREE", "FOUR", "FIVE", "SIX", "SEVEN", "EIGHT", "NINE"}

// findTicker returns the first run of uppercase letters that is neither
// a capitalised word ("Buy") nor a tag ("NOTE:").
func findTicker(s string) (string, int, int, bool) {
	for _, loc := range tickerPattern.FindAllStringIndex(s, -1) {
		rest := s[loc[1]:]
		if strings.HasPrefix(rest, ":") {
			continue
		}
		if loc[1]-loc[0] == 1 && len(rest) > 0 && rest[0] >= 'a' && rest[0] <= 'z' {
			continue
		}
		return s[loc[0]:loc[1]], loc[0], loc[1], true
	}
	return "", 0, 0, false
}

// findDirection returns the first call/put mention that is not part of
// a tag like "CPI:".
func findDirection(s string) (string, int, int, bool) {
	for _, loc := range directionPattern.FindAllStringIndex(s, -1) {
		if partOfTag(s[loc[1]:]) {
			continue
		}
		return s[loc[0]:loc[1]], loc[0], loc[1], true
	}
	return "", 0, 0, false
}

// partOfTag reports whether the text continues with letters up to a colon.
func partOfTag(rest string) bool {
	for i := 0; i < len(rest); i++ {
		c := rest[i]
		if c == ':' {
			return true
		}
		if !(c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z') {
			return false
		}
	}
	return false
}

func stripDirection(s string) string {
	if _, start, end, ok := findDirection(s); ok {
		return stripSpan(s, start, end)
	}
	return s
}

// stripFirst removes the first match of re and trims the result.
func stripFirst(re *regexp.Regexp, s string) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return strings.TrimSpace(s[:loc[0]] + s[loc[1]:])
}

func stripSpan(s string, start, end int) string {
	return strings.TrimSpace(s[:start] + s[end:])
}

// fixDecimalTypos repairs the usual fat-finger variants:
// "12. 5" -> "12.5", "12,5" -> "12.5", "12..5" -> "12.5".
func fixDecimalTypos(s string) string {
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", ".")
	if n := strings.Count(s, "."); n > 1 {
		s = strings.Replace(s, ".", "", n-1)
	}
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// resolveExpiry maps the first expiry mention to a calendar date.
// No mention, or a bare "today", resolves to today.
func resolveExpiry(content string, today time.Time) (exp time.Time, matched bool) {
	exp = today

	m := expDatePattern.FindStringSubmatch(content)
	if m == nil {
		return exp, false
	}

	switch {
	case m[1] != "":
		keyword := strings.ToUpper(m[1])
		switch {
		case strings.Contains(keyword, "WEEK"):
			exp = today.AddDate(0, 0, daysToFriday(today))
		case strings.Contains(keyword, "TOMORROW"):
			exp = today.AddDate(0, 0, 1)
		case strings.Contains(keyword, "DTE"):
			if d := leadingInt.FindString(m[1]); d != "" {
				n, _ := strconv.Atoi(d)
				exp = today.AddDate(0, 0, n)
			}
		}
	case m[2] != "":
		if d, err := parseSlashDate(m[2], today); err == nil {
			exp = d
		}
	case m[3] != "":
		if mon, ok := monthByPrefix(m[3]); ok {
			exp = time.Date(today.Year(), mon, 1, 0, 0, 0, 0, today.Location())
		}
	}

	return exp, true
}

// daysToFriday — days until the upcoming Friday, 0 when today is Friday.
func daysToFriday(today time.Time) int {
	wd := (int(today.Weekday()) + 6) % 7 // Monday = 0
	return ((4 - wd) + 7) % 7
}

// parseSlashDate reads US-style m/d or m/d/y dates.
func parseSlashDate(s string, today time.Time) (time.Time, error) {
	parts := strings.Split(s, "/")

	month, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, err
	}
	day, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, err
	}

	year := today.Year()
	if len(parts) == 3 {
		year, err = strconv.Atoi(parts[2])
		if err != nil {
			return time.Time{}, err
		}
		if year < 100 {
			year += 2000
		}
	}

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, today.Location()), nil
}

func monthByPrefix(s string) (time.Month, bool) {
	prefixes := map[string]time.Month{
		"JAN": time.January, "FEB": time.February, "MAR": time.March,
		"APR": time.April, "MAY": time.May, "JUN": time.June,
		"JUL": time.July, "AUG": time.August, "SEP": time.September,
		"OCT": time.October, "NOV": time.November, "DEC": time.December,
	}
	if len(s) < 3 {
		return 0, false
	}
	mon, ok := prefixes[strings.ToUpper(s[:3])]
	return mon, ok
}

// classifyCloseAmount reads how much of the position a Close alert sells.
// Keyword priority mirrors the channels' own vocabulary: stopped-out and
// all-out words first, size words second, explicit numbers last.
func classifyCloseAmount(content string) (models.CloseInstruction, string) {
	m := closeAmtPattern.FindStringSubmatch(content)
	if m == nil {
		return models.CloseInstruction{Kind: models.CloseAllOut, Fraction: 1.0}, content
	}

	instr := models.CloseInstruction{Kind: models.CloseAllOut, Fraction: 1.0}

	switch {
	case m[1] != "":
		// stop/sl/all/out/profit/remaining — full exit

	case m[2] != "":
		word := strings.ToUpper(strings.TrimSpace(m[2]))
		if n := spelledNumberValue(word); n > 0 {
			instr = models.CloseInstruction{Kind: models.CloseSpecific, Fraction: round2(float64(n) / 100)}
			break
		}
		switch {
		case strings.Contains(word, "MOST"):
			instr = models.CloseInstruction{Kind: models.CloseMost, Fraction: sellMostFraction}
		case strings.Contains(word, "HALF"):
			instr = models.CloseInstruction{Kind: models.CloseHalf, Fraction: sellHalfFraction}
		case strings.Contains(word, "SOME"):
			instr = models.CloseInstruction{Kind: models.CloseSome, Fraction: sellSomeFraction}
		case strings.Contains(word, "ANOTHER"):
			instr = models.CloseInstruction{Kind: models.CloseSingle, Fraction: sellSingleFraction}
		}

	case m[3] != "":
		instr = parseNumericAmount(m[3])
	}

	return instr, stripFirst(closeAmtPattern, content)
}

func spelledNumberValue(word string) int {
	for i, s := range spelledNumbers {
		if word == s {
			return i + 1
		}
	}
	return 0
}

// parseNumericAmount handles "1/2", "3", "75" and typo'd separators.
// Degenerate fractions are repaired; a hopeless one defaults to 1/2.
func parseNumericAmount(s string) models.CloseInstruction {
	value := strings.TrimSpace(fractionJunk.ReplaceAllString(s, "/"))

	if strings.Contains(value, "/") {
		parts := strings.SplitN(value, "/", 2)
		num, _ := strconv.Atoi(parts[0])
		den, _ := strconv.Atoi(parts[1])

		switch {
		case den < 1 && num > 0:
			den = num + int(math.Round(float64(num-1)/2))
		case num < 1 && den > 0:
			num = den - int(math.Round(float64(den-1)/2))
		case num < 1 && den < 1:
			num, den = 1, 2
		}

		return models.CloseInstruction{Kind: models.CloseFractional, Fraction: round2(float64(num) / float64(den))}
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return models.CloseInstruction{Kind: models.CloseAllOut, Fraction: 1.0}
	}
	return models.CloseInstruction{Kind: models.CloseSpecific, Fraction: round2(float64(n) / 100)}
}
