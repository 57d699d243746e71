package evaluation

import (
	"regexp"
	"strconv"
	"strings"
)

// Band is a ten-point score band such as "40-50". The empty band means the
// rater's response could not be parsed.
type Band string

// Bands is the fixed scale raters must choose from.
var Bands = []Band{
	"0-10", "10-20", "20-30", "30-40", "40-50",
	"50-60", "60-70", "70-80", "80-90", "90-100",
}

var (
	bandRe     = regexp.MustCompile(`Band:\s*([0-9]{1,2}-[0-9]{1,3})`)
	feedbackRe = regexp.MustCompile(`Feedback:\s*(.*)`)
)

// Upper returns the band's upper bound, the value used for averaging. An
// empty or malformed band counts as zero.
func (b Band) Upper() int {
	parts := strings.SplitN(string(b), "-", 2)
	if len(parts) != 2 {
		return 0
	}
	upper, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0
	}
	return upper
}

// ParseRating extracts the band and feedback line from a rater's free-text
// response. A response without a recognizable band yields the empty band; a
// response without a feedback line yields the whole text as feedback so
// nothing the rater said is lost.
func ParseRating(text string) (Band, string) {
	var band Band
	if m := bandRe.FindStringSubmatch(text); m != nil {
		band = Band(m[1])
	}

	feedback := text
	if m := feedbackRe.FindStringSubmatch(text); m != nil {
		feedback = m[1]
	}

	return band, strings.TrimSpace(feedback)
}

// Verdict maps an average score to the overall hiring verdict.
func Verdict(avgScore float64) string {
	switch {
	case avgScore >= 80:
		return "Outstanding"
	case avgScore >= 60:
		return "Strong Candidate"
	case avgScore >= 40:
		return "Average"
	default:
		return "Needs Improvement"
	}
}
