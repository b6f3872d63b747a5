package service

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"concierge/internal/config"
	"concierge/internal/model"
)

var (
	shortTerminalPattern = regexp.MustCompile(`\bt(\d)\b`)
	longTerminalPattern  = regexp.MustCompile(`\bterminal\s*(\d)\b`)
	transitPattern       = regexp.MustCompile(`\b(transit|in transit|transfer|layover|stopover|connecting)\b`)
	openNowPattern       = regexp.MustCompile(`\b(open now|what'?s open|currently open|open right now)\b`)
	nonAlphanumeric      = regexp.MustCompile(`[^a-z0-9]+`)
	terminalToken        = regexp.MustCompile(`^t\d$`)
)

// stopWords are dropped from keyword extraction: articles, prepositions,
// politeness words and generic airport vocabulary
var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`
		find me a an the in at near around can i get some any where is are there
		what which show suggest recommend want need looking for to please do does
		from with and or my gate terminal now open currently best good great nice
		have has like love really very just also but not that this its how about
		close whats airport transit transfer layover stopover connecting`) {
		stopWords[w] = struct{}{}
	}
}

// extractionRule fills at most one field of f from the lower-cased query.
// Rules run in order and leave fields set by earlier rules alone.
type extractionRule struct {
	name  string
	apply func(text string, f *model.ExtractedFilters)
}

// PreFilter turns a raw query into ExtractedFilters without any I/O
type PreFilter struct {
	venue *config.Venue
	rules []extractionRule

	gatePattern    *regexp.Regexp
	aliasPatterns  []aliasPattern
	droppedAliases map[string]struct{}
}

type aliasPattern struct {
	re   *regexp.Regexp
	code string
}

// NewPreFilter compiles the extraction rules for a venue
func NewPreFilter(venue *config.Venue) *PreFilter {
	p := &PreFilter{
		venue:          venue,
		gatePattern:    regexp.MustCompile(fmt.Sprintf(`\b(?:gate\s*)?([%s]\d{1,3})\b`, regexp.QuoteMeta(venue.GateLetters))),
		droppedAliases: make(map[string]struct{}, len(venue.Aliases)),
	}

	names := make([]string, 0, len(venue.Aliases))
	for name := range venue.Aliases {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		p.aliasPatterns = append(p.aliasPatterns, aliasPattern{
			re:   regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`),
			code: venue.Aliases[name],
		})
		for _, tok := range strings.Fields(name) {
			p.droppedAliases[tok] = struct{}{}
		}
	}

	p.rules = []extractionRule{
		{"short_terminal", p.numberedTerminal(shortTerminalPattern)},
		{"long_terminal", p.numberedTerminal(longTerminalPattern)},
		{"alias_terminal", p.aliasTerminal},
		{"gate", p.gate},
		{"transit", transit},
		{"open_now", openNow},
		{"keywords", p.keywords},
	}
	return p
}

// Extract runs every rule over query, then lets hints override the result.
// The same input always yields the same filters.
func (p *PreFilter) Extract(query string, hints *model.ChatContext) *model.ExtractedFilters {
	text := strings.ToLower(query)
	f := &model.ExtractedFilters{Keywords: []string{}}
	for _, rule := range p.rules {
		rule.apply(text, f)
	}

	if hints != nil {
		if hints.Terminal != "" {
			f.Terminal = hints.Terminal
		}
		if hints.IsTransit != nil {
			f.IsTransit = *hints.IsTransit
		}
		if hints.Gate != "" {
			f.Gate = strings.ToUpper(hints.Gate)
		}
	}
	return f
}

func (p *PreFilter) numberedTerminal(re *regexp.Regexp) func(string, *model.ExtractedFilters) {
	return func(text string, f *model.ExtractedFilters) {
		if f.Terminal != "" {
			return
		}
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			if code, ok := p.venue.TerminalCode(n); ok {
				f.Terminal = code
				return
			}
		}
	}
}

func (p *PreFilter) aliasTerminal(text string, f *model.ExtractedFilters) {
	if f.Terminal != "" {
		return
	}
	for _, a := range p.aliasPatterns {
		if a.re.MatchString(text) {
			f.Terminal = a.code
			return
		}
	}
}

func (p *PreFilter) gate(text string, f *model.ExtractedFilters) {
	if f.Gate != "" {
		return
	}
	if m := p.gatePattern.FindStringSubmatch(text); m != nil {
		f.Gate = strings.ToUpper(m[1])
	}
}

func transit(text string, f *model.ExtractedFilters) {
	if !f.IsTransit {
		f.IsTransit = transitPattern.MatchString(text)
	}
}

func openNow(text string, f *model.ExtractedFilters) {
	if !f.WantsOpenNow {
		f.WantsOpenNow = openNowPattern.MatchString(text)
	}
}

func (p *PreFilter) keywords(text string, f *model.ExtractedFilters) {
	gate := strings.ToLower(f.Gate)
	for _, tok := range strings.Fields(nonAlphanumeric.ReplaceAllString(text, " ")) {
		if len(tok) <= 2 || tok == gate || terminalToken.MatchString(tok) {
			continue
		}
		if _, ok := stopWords[tok]; ok {
			continue
		}
		if _, ok := p.droppedAliases[tok]; ok {
			continue
		}
		f.Keywords = append(f.Keywords, tok)
	}
}
