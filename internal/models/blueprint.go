// Package models defines blueprint assembly structures for Builder mode.
package models

import (
	"fmt"
	"sort"
	"strings"
)

// Section is one titled block of the blueprint document.
type Section struct {
	Key     string `json:"key"`
	Content string `json:"content"`
}

// Blueprint accumulates the sections produced by the model in Builder mode.
// Sections keep the order in which their keys first arrived; a repeated key
// replaces the section content in place.
type Blueprint struct {
	Sections       []Section `json:"sections"`
	CriticIssues   []string  `json:"critic_issues,omitempty"`
	FragmentsAdded int       `json:"fragments_added"`
}

// sectionTitles maps the canonical fragment keys to their document headings.
// Unknown keys fall back to a humanized form of the key itself.
var sectionTitles = map[string]string{
	"summary":           "Business summary",
	"problem":           "Customer and problem",
	"value_proposition": "Value proposition and differentiation",
	"product_scope":     "Product scope (MVP, included vs excluded)",
	"go_to_market":      "Go-to-market hypothesis",
	"tech_direction":    "Tech and build direction",
	"operations_risks":  "Operations and risks",
	"revenue":           "Revenue and pricing logic",
	"execution_plan":    "90-day execution plan",
	"open_items":        "Open items (WIP)",
	"reality_checks":    "Reality checks and risks",
}

// SectionTitle returns the document heading for a fragment key.
func SectionTitle(key string) string {
	if title, ok := sectionTitles[key]; ok {
		return title
	}
	return humanizeKey(key)
}

func humanizeKey(key string) string {
	words := strings.Split(strings.ReplaceAll(key, "-", "_"), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		if i == 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		} else {
			words[i] = strings.ToLower(w)
		}
	}
	return strings.Join(words, " ")
}

// AddFragment merges one model-produced fragment into the blueprint. New keys
// append in arrival order; an existing key has its content replaced in place so
// later Builder turns can refine earlier sections without reordering the document.
func (b *Blueprint) AddFragment(fragment map[string]string) {
	if len(fragment) == 0 {
		return
	}
	// Iterate canonical keys first so a multi-key fragment lands in document
	// order, then any unknown keys in lexical order for determinism.
	merged := false
	for _, key := range orderedFragmentKeys(fragment) {
		content := strings.TrimSpace(fragment[key])
		if content == "" {
			continue
		}
		if i := b.sectionIndex(key); i >= 0 {
			b.Sections[i].Content = content
		} else {
			b.Sections = append(b.Sections, Section{Key: key, Content: content})
		}
		merged = true
	}
	if merged {
		b.FragmentsAdded++
	}
}

func (b *Blueprint) sectionIndex(key string) int {
	for i, s := range b.Sections {
		if s.Key == key {
			return i
		}
	}
	return -1
}

// canonicalOrder lists the known keys in their document order.
var canonicalOrder = []string{
	"summary", "problem", "value_proposition", "product_scope", "go_to_market",
	"tech_direction", "operations_risks", "revenue", "execution_plan",
	"open_items", "reality_checks",
}

func orderedFragmentKeys(fragment map[string]string) []string {
	keys := make([]string, 0, len(fragment))
	seen := make(map[string]bool, len(fragment))
	for _, key := range canonicalOrder {
		if _, ok := fragment[key]; ok {
			keys = append(keys, key)
			seen[key] = true
		}
	}
	var extra []string
	for key := range fragment {
		if !seen[key] {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	return append(keys, extra...)
}

// Empty reports whether no fragment has ever contributed content.
func (b *Blueprint) Empty() bool {
	return b.FragmentsAdded == 0
}

// SetCriticIssues records the contradiction scan outcome for the next export.
func (b *Blueprint) SetCriticIssues(issues []string) {
	b.CriticIssues = issues
}

// Markdown renders the blueprint as a Markdown document with a fixed heading
// structure: a top-level title, one second-level heading per section in arrival
// order, and, when a contradiction scan ran, a trailing consistency section.
func (b *Blueprint) Markdown() string {
	var sb strings.Builder
	sb.WriteString("# Business Blueprint\n")
	for _, s := range b.Sections {
		sb.WriteString("\n## ")
		sb.WriteString(SectionTitle(s.Key))
		sb.WriteString("\n\n")
		sb.WriteString(s.Content)
		sb.WriteString("\n")
	}
	if b.CriticIssues != nil {
		sb.WriteString("\n## Consistency check (auto)\n\n")
		if len(b.CriticIssues) == 0 {
			sb.WriteString("No internal contradictions detected.\n")
		} else {
			for i, issue := range b.CriticIssues {
				sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, issue))
			}
		}
	}
	return sb.String()
}
