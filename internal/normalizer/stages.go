package normalizer

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pfrederiksen/ade-events/internal/event"
)

// DefaultExclusions are the event names that label the festival itself
// rather than an event.
var DefaultExclusions = []string{"amsterdam dance event", "amsterdam dance events"}

// ExcludeNames drops rows whose lower-cased event name equals one of names.
// Rows without a name are kept.
func ExcludeNames(names []string) Stage {
	excluded := make(map[string]struct{}, len(names))
	for _, name := range names {
		excluded[strings.ToLower(strings.TrimSpace(name))] = struct{}{}
	}

	return func(t Table) Table {
		out := make(Table, 0, len(t))
		for _, r := range t {
			if _, ok := excluded[strings.ToLower(r.EventName)]; ok && r.EventName != "" {
				continue
			}
			out = append(out, r)
		}
		return out
	}
}

// nameStripPatterns are applied in order, each followed by a trim.
var nameStripPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(ADE )|( ADE)$`),
	regexp.MustCompile(`^(ADE: )|( ADE)$`),
	regexp.MustCompile(`@.*$`),
	regexp.MustCompile(`^[^\w]+|[^\w]+$`),
}

// CanonicalizeNames upper-cases event names and strips festival tags,
// "@ venue" suffixes and surrounding punctuation.
func CanonicalizeNames(t Table) Table {
	out := clone(t)
	for i := range out {
		name := strings.ToUpper(out[i].EventName)
		for _, p := range nameStripPatterns {
			name = strings.TrimSpace(p.ReplaceAllString(name, ""))
		}
		out[i].EventName = name
	}
	return out
}

// SplitDatetimes splits start and end datetimes on "T" into a calendar date
// and an HH:MM time. Unparseable halves become null.
func SplitDatetimes(t Table) Table {
	out := clone(t)
	for i := range out {
		out[i].Clean.StartDate, out[i].Clean.StartTime = splitDatetime(out[i].StartDatetime)
		out[i].Clean.EndDate, out[i].Clean.EndTime = splitDatetime(out[i].EndDatetime)
	}
	return out
}

func splitDatetime(s string) (*time.Time, *event.TimeOfDay) {
	if s == "" {
		return nil, nil
	}

	datePart, timePart, hasTime := strings.Cut(s, "T")

	d := event.ParseDate(datePart)
	if d.IsZero() && !hasTime {
		// "2019-10-17 22:00" and friends carry no T
		if dt := event.ParseDatetime(s); !dt.IsZero() {
			d = time.Date(dt.Year(), dt.Month(), dt.Day(), 0, 0, 0, 0, time.UTC)
		}
	}

	var date *time.Time
	if !d.IsZero() {
		date = &d
	}

	var clock *event.TimeOfDay
	if hasTime {
		if tod, ok := event.ParseTimeOfDay(timePart); ok {
			clock = &tod
		}
	}

	return date, clock
}

// DeriveDuration sets the minutes between the start and end instants. It is
// null unless both dates and both times are known.
func DeriveDuration(t Table) Table {
	out := clone(t)
	for i := range out {
		c := &out[i].Clean
		c.DurationMinutes = nil
		if c.StartDate == nil || c.StartTime == nil || c.EndDate == nil || c.EndTime == nil {
			continue
		}
		minutes := int(c.EndTime.On(*c.EndDate).Sub(c.StartTime.On(*c.StartDate)) / time.Minute)
		c.DurationMinutes = &minutes
	}
	return out
}

// DeriveEdition sets the edition from the year of the original start
// datetime text, independent of SplitDatetimes.
func DeriveEdition(t Table) Table {
	out := clone(t)
	for i := range out {
		out[i].Clean.Edition = nil
		if dt := event.ParseDatetime(out[i].StartDatetime); !dt.IsZero() {
			year := dt.Year()
			out[i].Clean.Edition = &year
		}
	}
	return out
}

var parenthesized = regexp.MustCompile(`\(.*\)`)

var lowerDutch = cases.Lower(language.Dutch)

// titleCase lower-cases s and upper-cases the first letter after each run of
// whitespace. Digits and punctuation inside a word leave the rest lower case,
// so "1e jacob van campenstraat" becomes "1e Jacob Van Campenstraat".
func titleCase(s string) string {
	runes := []rune(lowerDutch.String(s))
	start := true
	for i, r := range runes {
		if unicode.IsSpace(r) {
			start = true
			continue
		}
		if start {
			runes[i] = unicode.ToUpper(r)
			start = false
		}
	}
	return string(runes)
}

func cleanPlace(s string) string {
	return titleCase(strings.TrimSpace(parenthesized.ReplaceAllString(s, "")))
}

// CanonicalizeVenues cleans venue and address text, then gives every row
// sharing an address the shortest venue seen for it. Ties go to the first
// row. Rows without an address get no venue.
func CanonicalizeVenues(t Table) Table {
	out := clone(t)
	for i := range out {
		out[i].Venue = cleanPlace(out[i].Venue)
		out[i].Address = cleanPlace(out[i].Address)
	}

	shortest := make(map[string]string)
	for _, r := range out {
		if r.Address == "" || r.Venue == "" {
			continue
		}
		best, ok := shortest[r.Address]
		if !ok || utf8.RuneCountInString(r.Venue) < utf8.RuneCountInString(best) {
			shortest[r.Address] = r.Venue
		}
	}

	for i := range out {
		out[i].Clean.VenueName = nil
		if venue, ok := shortest[out[i].Address]; ok {
			v := venue
			out[i].Clean.VenueName = &v
		}
	}
	return out
}

// CastNumbers parses coordinates as floats and capacity as an integer.
func CastNumbers(t Table) Table {
	out := clone(t)
	for i := range out {
		out[i].Clean.Latitude = parseFloat(out[i].Latitude)
		out[i].Clean.Longitude = parseFloat(out[i].Longitude)
		out[i].Clean.Capacity = parseInt(out[i].Capacity)
	}
	return out
}

func parseFloat(s string) *float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// parseInt parses a 32-bit integer, the width of the capacity column
func parseInt(s string) *int {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return nil
	}
	v := int(n)
	return &v
}

// FlagStatus marks rows whose state text mentions SOLD OUT or CANCELLED.
func FlagStatus(t Table) Table {
	out := clone(t)
	for i := range out {
		state := strings.ToUpper(out[i].State)
		out[i].Clean.IsSoldOut = strings.Contains(state, "SOLD OUT")
		out[i].Clean.IsCancelled = strings.Contains(state, "CANCELLED")
	}
	return out
}

// FreeEntrance is the price text of events without an entrance fee.
const FreeEntrance = "Free entrance"

var (
	presalePattern = regexp.MustCompile(`(Presale):\s*(\d{1,3},\d{2})`)
	doorPattern    = regexp.MustCompile(`(Door):\s*(\d{1,3},\d{2})`)
)

// ParsePrices extracts presale and door prices. A price found on only one
// side fills the other.
func ParsePrices(t Table) Table {
	out := clone(t)
	for i := range out {
		out[i].Clean.PricePresale, out[i].Clean.PriceDoor = parsePrice(out[i].Price)
	}
	return out
}

func parsePrice(text string) (*decimal.Decimal, *decimal.Decimal) {
	var presale, door string
	if text == FreeEntrance {
		presale, door = "0,00", "0,00"
	} else {
		presale = extractAmount(presalePattern, text)
		door = extractAmount(doorPattern, text)
	}

	if presale == "" {
		presale = door
	}
	if door == "" {
		door = presale
	}

	return toDecimal(presale), toDecimal(door)
}

func extractAmount(p *regexp.Regexp, text string) string {
	m := p.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[2]
}

func toDecimal(amount string) *decimal.Decimal {
	if amount == "" {
		return nil
	}
	d, err := decimal.NewFromString(strings.Replace(amount, ",", ".", 1))
	if err != nil {
		return nil
	}
	d = d.Truncate(2)
	return &d
}

var genreJunk = regexp.MustCompile(`[^a-zA-Z0-9\s,]`)

// NormalizeGenre turns the genre text into upper-case tags. Periods count
// as separators.
func NormalizeGenre(t Table) Table {
	out := clone(t)
	for i := range out {
		genres := make([]string, 0)
		if out[i].Genre != "" {
			for _, tag := range strings.Split(strings.ReplaceAll(out[i].Genre, ".", ","), ",") {
				tag = strings.TrimSpace(strings.ToUpper(tag))
				tag = strings.TrimSpace(genreJunk.ReplaceAllString(tag, ""))
				if tag != "" {
					genres = append(genres, tag)
				}
			}
		}
		out[i].Clean.Genre = genres
	}
	return out
}

var (
	lineupQuotes     = regexp.MustCompile(`[\x{2019}\x{FFFD}']`)
	lineupAsides     = regexp.MustCompile(`\(.*?\)`)
	lineupSeparators = regexp.MustCompile(`(?i)\s(?:vs\.?|en|b2b)\s+`)
)

// NormalizeLineup splits the lineup text into upper-case performer names.
// "vs", "en" and "b2b" between names act as separators.
func NormalizeLineup(t Table) Table {
	out := clone(t)
	for i := range out {
		performers := make([]string, 0)
		if out[i].Lineup != "" {
			text := lineupQuotes.ReplaceAllString(out[i].Lineup, "")
			text = lineupAsides.ReplaceAllString(text, "")
			text = lineupSeparators.ReplaceAllString(text, ", ")
			for _, name := range strings.Split(strings.ToUpper(text), ",") {
				if name = strings.TrimSpace(name); name != "" {
					performers = append(performers, name)
				}
			}
		}
		out[i].Clean.Lineup = performers
	}
	return out
}
