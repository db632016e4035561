package agent

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/fortuna/matchday/internal/ingest/websearch"
	"github.com/fortuna/matchday/internal/matching"
)

var timePattern = regexp.MustCompile(`\b([01]?\d|2[0-3]):([0-5]\d)\b`)

// monthIndex maps folded English and Turkish month names to 0..11.
var monthIndex = map[string]int{
	"jan": 0, "january": 0, "ocak": 0,
	"feb": 1, "february": 1, "subat": 1,
	"mar": 2, "march": 2, "mart": 2,
	"apr": 3, "april": 3, "nisan": 3,
	"may": 4, "mayis": 4,
	"jun": 5, "june": 5, "haziran": 5,
	"jul": 6, "july": 6, "temmuz": 6,
	"aug": 7, "august": 7, "agustos": 7,
	"sep": 8, "sept": 8, "september": 8, "eylul": 8,
	"oct": 9, "october": 9, "ekim": 9,
	"nov": 10, "november": 10, "kasim": 10,
	"dec": 11, "december": 11, "aralik": 11,
}

// turkishMonths are the surface forms that case-insensitive matching alone
// cannot reach from the folded keys (dotted and dotless i, cedilla, breve).
var turkishMonths = []string{
	"Ocak", "Şubat", "Mart", "Nisan", "Mayıs", "Haziran",
	"Temmuz", "Ağustos", "Eylül", "Ekim", "Kasım", "Aralık",
}

var datePattern = buildDatePattern()

func buildDatePattern() *regexp.Regexp {
	seen := make(map[string]bool)
	var forms []string
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			forms = append(forms, regexp.QuoteMeta(s))
		}
	}
	for key := range monthIndex {
		add(key)
	}
	for _, m := range turkishMonths {
		add(m)
		add(turkishUpper(m))
		add(turkishLower(m))
	}
	sort.Slice(forms, func(i, j int) bool {
		if len(forms[i]) != len(forms[j]) {
			return len(forms[i]) > len(forms[j])
		}
		return forms[i] < forms[j]
	})
	return regexp.MustCompile(`(?i)\b(0?[1-9]|[12]\d|3[01])\s+(` + strings.Join(forms, "|") + `)\b`)
}

func turkishUpper(s string) string {
	s = strings.ReplaceAll(s, "i", "İ")
	s = strings.ReplaceAll(s, "ı", "I")
	return strings.ToUpper(s)
}

func turkishLower(s string) string {
	s = strings.ReplaceAll(s, "I", "ı")
	s = strings.ReplaceAll(s, "İ", "i")
	return strings.ToLower(s)
}

// Extractor pulls a date and a time out of free text without any network access.
type Extractor struct {
	months []string
}

// NewExtractor creates an extractor that renders dates with the given month table.
func NewExtractor(months []string) *Extractor {
	return &Extractor{months: months}
}

// HeuristicParse scans results in order and returns the first "<day> <month>"
// and the first "HH:MM" it finds. The two are searched independently.
func (e *Extractor) HeuristicParse(results []websearch.Result) (date, clock string) {
	for _, r := range results {
		text := r.Title + " " + r.Body
		if clock == "" {
			clock = e.FindTime(text)
		}
		if date == "" {
			date = e.FindDate(text)
		}
		if date != "" && clock != "" {
			break
		}
	}
	return date, clock
}

// FindTime returns the first HH:MM token of text, zero padded.
func (e *Extractor) FindTime(text string) string {
	m := timePattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	h, _ := strconv.Atoi(m[1])
	return fmt.Sprintf("%02d:%s", h, m[2])
}

// FindDate returns the first day-and-month token of text in canonical form.
func (e *Extractor) FindDate(text string) string {
	m := datePattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	idx, ok := monthIndex[matching.Fold(m[2])]
	if !ok {
		return ""
	}
	d, _ := strconv.Atoi(m[1])
	return fmt.Sprintf("%d %s", d, e.months[idx])
}

// CanonicalDate rewrites a loosely formatted date ("20 Mart", "1 april") into
// canonical form. Text it cannot read is returned trimmed.
func (e *Extractor) CanonicalDate(s string) string {
	if d := e.FindDate(s); d != "" {
		return d
	}
	return strings.TrimSpace(s)
}
