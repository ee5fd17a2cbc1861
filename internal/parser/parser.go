// Package parser extracts the task mini-language from note content: a
// trailing priority tag ("p2") and natural-language due/start instants
// ("due tomorrow 5pm", "start monday").
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	priorityRe = regexp.MustCompile(`(?i)(?:^|\s)(p([0-5]))\s*$`)
	dueRe      = regexp.MustCompile(`(?i)\bdue\s+`)
	startRe    = regexp.MustCompile(`(?i)\bstart\s+`)
	dueStopRe  = regexp.MustCompile(`(?i)\bstart\b`)
	startStop  = regexp.MustCompile(`(?i)\bdue\b`)
)

// Resolver turns a time expression into an instant.
type Resolver interface {
	Resolve(text string) (time.Time, bool)
}

// Result holds the output of parsing task content. Nil fields were not
// present (or did not resolve).
type Result struct {
	Content  string
	Priority *int
	Start    *time.Time
	Due      *time.Time
	// Warnings lists date phrases that were found but left in place
	// because they did not resolve.
	Warnings []string
}

// Parser parses task content.
type Parser struct {
	resolver Resolver
}

// New creates a parser that resolves dates with r.
func New(r Resolver) *Parser {
	return &Parser{resolver: r}
}

// Parse strips the priority tag, then the due span, then the start span, and
// finally collapses whitespace on each line. A step that does not match, or
// whose date does not resolve, leaves the text as it was.
func (p *Parser) Parse(text string) Result {
	var res Result

	text, res.Priority = extractPriority(text)

	var warn string
	text, res.Due, warn = p.extractDate(text, dueRe, dueStopRe, "due")
	if warn != "" {
		res.Warnings = append(res.Warnings, warn)
	}
	text, res.Start, warn = p.extractDate(text, startRe, startStop, "start")
	if warn != "" {
		res.Warnings = append(res.Warnings, warn)
	}

	res.Content = Normalize(text)
	return res
}

func extractPriority(text string) (string, *int) {
	m := priorityRe.FindStringSubmatchIndex(text)
	if m == nil {
		return text, nil
	}
	n, err := strconv.Atoi(text[m[4]:m[5]])
	if err != nil {
		return text, nil
	}
	return text[:m[2]], &n
}

// extractDate finds the first keyword match and takes the text up to the
// stop keyword (or the end) as the date phrase.
func (p *Parser) extractDate(text string, keyword, stop *regexp.Regexp, name string) (string, *time.Time, string) {
	loc := keyword.FindStringIndex(text)
	if loc == nil {
		return text, nil, ""
	}
	end := len(text)
	if s := stop.FindStringIndex(text[loc[1]:]); s != nil {
		end = loc[1] + s[0]
	}
	phrase := strings.TrimSpace(text[loc[1]:end])
	if phrase == "" {
		return text, nil, ""
	}
	at, ok := p.resolver.Resolve(phrase)
	if !ok {
		return text, nil, fmt.Sprintf("%s date %q not recognised", name, phrase)
	}
	return text[:loc[0]] + " " + text[end:], &at, ""
}

// Normalize collapses runs of spaces and tabs to one space and trims each
// line. Line breaks are kept.
func Normalize(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.Join(lines, "\n")
}
