package markdown

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
)

// Filter links every match of Pattern to URLFormat.
// Pattern uses named groups, URLFormat refers to them as %(name)s.
type Filter struct {
	Pattern   string
	URLFormat string
}

type compiledFilter struct {
	pattern *regexp.Regexp
	format  string
}

type filterMatch struct {
	start int
	end   int
	url   string
}

var formatReference = regexp.MustCompile(`%\((\w+)\)s`)

func compileFilters(filters []Filter) []compiledFilter {
	out := make([]compiledFilter, 0, len(filters))
	for _, filter := range filters {
		pattern, err := regexp.Compile(filter.Pattern)
		if err != nil {
			log.Warn().Err(err).Str("pattern", filter.Pattern).Msg("Skipped a realm filter with invalid pattern.")
			continue
		}
		out = append(out, compiledFilter{pattern: pattern, format: filter.URLFormat})
	}
	return out
}

func (v compiledFilter) expand(src string, match []int) string {
	return formatReference.ReplaceAllStringFunc(v.format, func(ref string) string {
		name := formatReference.FindStringSubmatch(ref)[1]
		idx := v.pattern.SubexpIndex(name)
		if idx < 0 || match[2*idx] < 0 {
			return ""
		}
		return src[match[2*idx]:match[2*idx+1]]
	})
}

func (v compiledFilter) find(src string) []filterMatch {
	var out []filterMatch
	for _, match := range v.pattern.FindAllStringSubmatchIndex(src, -1) {
		if match[0] == match[1] || !isStandalone(src, match[0], match[1]) {
			continue
		}
		out = append(out, filterMatch{start: match[0], end: match[1], url: v.expand(src, match)})
	}
	return out
}

// isStandalone requires a match to start after whitespace, an opening quote or
// bracket, and to end before a non word character.
func isStandalone(src string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(src[:start])
		if !unicode.IsSpace(r) && !strings.ContainsRune(`'"(,:<`, r) {
			return false
		}
	}
	if end < len(src) {
		r, _ := utf8.DecodeRuneInString(src[end:])
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// findAll returns the non overlapping matches of every filter ordered by position.
// On overlap the earlier filter wins.
func findAll(filters []compiledFilter, src string) []filterMatch {
	var all []filterMatch
	for _, filter := range filters {
		all = append(all, filter.find(src)...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].start < all[j].start
	})

	out := make([]filterMatch, 0, len(all))
	cursor := 0
	for _, match := range all {
		if match.start < cursor {
			continue
		}
		out = append(out, match)
		cursor = match.end
	}
	return out
}

// SubjectLinks returns the URL of every filter match in subject,
// in filter order and then in match order.
func SubjectLinks(subject string, filters []Filter) []string {
	links := make([]string, 0)
	for _, filter := range compileFilters(filters) {
		for _, match := range filter.find(subject) {
			links = append(links, match.url)
		}
	}
	return links
}
