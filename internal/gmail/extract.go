package gmail

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Patterns holds the regular expressions used to pull company and position
// names out of application-confirmation emails. The first capture group of
// each pattern is the extracted value. Patterns are tried against the
// subject first, then the body.
type Patterns struct {
	Company  []string `yaml:"company"`
	Position []string `yaml:"position"`

	company  []*regexp.Regexp
	position []*regexp.Regexp
}

// Extracted is the result of running the heuristics over one email.
// Confidence reflects which fields matched and where; it is informational
// metadata on the candidate, never a retention gate.
type Extracted struct {
	Company    string
	Position   string
	Confidence float64
}

var defaultCompanyPatterns = []string{
	`(?i)thank you for applying to ([A-Za-z0-9\s&]+)`,
	`(?i)application (?:received|confirmed) - ([A-Za-z0-9\s&]+)`,
	`(?i)([A-Za-z0-9\s&]+) application (?:received|confirmation)`,
	`(?i)your application to ([A-Za-z0-9\s&]+)`,
	`(?i)from ([A-Za-z0-9\s&]+) recruiting`,
	`(?i)([A-Za-z0-9\s&]+) careers`,
}

var defaultPositionPatterns = []string{
	`(?i)position:?\s*([A-Za-z0-9\s]+)`,
	`(?i)role:?\s*([A-Za-z0-9\s]+)`,
	`(?i)applying for (?:the|our)?\s*([A-Za-z0-9\s]+?)\s*(?:position|role|opening)`,
	`(?i)your application for (?:the)?\s*([A-Za-z0-9\s]+?)\s*(?:position|role)`,
}

// DefaultPatterns returns the built-in extraction patterns.
func DefaultPatterns() *Patterns {
	p := &Patterns{Company: defaultCompanyPatterns, Position: defaultPositionPatterns}
	if err := p.compile(); err != nil {
		// built-ins are known-good
		panic(err)
	}
	return p
}

// LoadPatterns reads extraction patterns from a YAML file. Missing sections
// fall back to the built-in patterns.
func LoadPatterns(path string) (*Patterns, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read patterns file: %w", err)
	}
	p := &Patterns{}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parse patterns file: %w", err)
	}
	if len(p.Company) == 0 {
		p.Company = defaultCompanyPatterns
	}
	if len(p.Position) == 0 {
		p.Position = defaultPositionPatterns
	}
	if err := p.compile(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Patterns) compile() error {
	p.company = p.company[:0]
	p.position = p.position[:0]
	for _, expr := range p.Company {
		re, err := regexp.Compile(expr)
		if err != nil {
			return fmt.Errorf("compile company pattern %q: %w", expr, err)
		}
		p.company = append(p.company, re)
	}
	for _, expr := range p.Position {
		re, err := regexp.Compile(expr)
		if err != nil {
			return fmt.Errorf("compile position pattern %q: %w", expr, err)
		}
		p.position = append(p.position, re)
	}
	return nil
}

// Extract runs the heuristics over subject and body. Confidence starts at
// 0.5 for a company hit, gains 0.2 for a position hit and 0.2 more when the
// company was found in the subject line (subjects are far less noisy than
// bodies), capped at 1.0.
func (p *Patterns) Extract(subject, body string) Extracted {
	var out Extracted

	company, inSubject := firstMatch(p.company, subject, body)
	if company == "" {
		return out
	}
	out.Company = company
	out.Confidence = 0.5
	if inSubject {
		out.Confidence += 0.2
	}

	if position, _ := firstMatch(p.position, subject, body); position != "" {
		out.Position = position
		out.Confidence += 0.2
	}
	if out.Confidence > 1.0 {
		out.Confidence = 1.0
	}
	return out
}

// firstMatch tries each pattern against the subject and then the body,
// returning the first capture and whether it came from the subject.
func firstMatch(patterns []*regexp.Regexp, subject, body string) (string, bool) {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(subject); len(m) > 1 {
			return strings.TrimSpace(m[1]), true
		}
	}
	for _, re := range patterns {
		if m := re.FindStringSubmatch(body); len(m) > 1 {
			return strings.TrimSpace(m[1]), false
		}
	}
	return "", false
}
