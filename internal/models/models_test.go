package models

import (
	"strings"
	"testing"
)

func TestParsePhase(t *testing.T) {
	valid := []string{"RECOGNITION", "CONVERGENCE", "INTENT_LOCK", "BUILDER"}
	for _, s := range valid {
		p, err := ParsePhase(s)
		if err != nil {
			t.Errorf("ParsePhase(%q) returned error: %v", s, err)
		}
		if string(p) != s {
			t.Errorf("ParsePhase(%q) = %q", s, p)
		}
	}

	for _, s := range []string{"", "builder", "DISCOVERY", "DONE"} {
		if _, err := ParsePhase(s); err == nil {
			t.Errorf("ParsePhase(%q) expected error, got nil", s)
		}
	}
}

func TestPhaseRankOrdering(t *testing.T) {
	phases := []Phase{PhaseRecognition, PhaseConvergence, PhaseIntentLock, PhaseBuilder}
	for i := 1; i < len(phases); i++ {
		if phases[i].Rank() <= phases[i-1].Rank() {
			t.Errorf("expected %s to rank above %s", phases[i], phases[i-1])
		}
	}
	if Phase("NOPE").Rank() != -1 {
		t.Errorf("expected invalid phase rank -1, got %d", Phase("NOPE").Rank())
	}
}

func TestParseStructuredReply(t *testing.T) {
	raw := `{"phase":"RECOGNITION","message":"Tell me who's using it day to day."}`
	reply, err := ParseStructuredReply(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Phase != PhaseRecognition {
		t.Errorf("expected phase RECOGNITION, got %s", reply.Phase)
	}
	if reply.BlueprintFragment != nil {
		t.Errorf("expected no fragment, got %v", reply.BlueprintFragment)
	}
}

func TestParseStructuredReplyWithFragment(t *testing.T) {
	raw := `{"phase":"BUILDER","message":"Locking intent.","blueprint_fragment":{"problem":"Dentists lose hours to phone scheduling."}}`
	reply, err := ParseStructuredReply(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Phase != PhaseBuilder {
		t.Errorf("expected phase BUILDER, got %s", reply.Phase)
	}
	if reply.BlueprintFragment["problem"] == "" {
		t.Error("expected problem fragment to be carried through")
	}
}

func TestParseStructuredReplyRejectsBadPayloads(t *testing.T) {
	cases := map[string]string{
		"malformed JSON":   `{"phase":"BUILDER",`,
		"unknown phase":    `{"phase":"DISCOVERY","message":"hi"}`,
		"missing message":  `{"phase":"BUILDER"}`,
		"unknown field":    `{"phase":"BUILDER","message":"hi","mode":"x"}`,
		"trailing content": `{"phase":"BUILDER","message":"hi"} extra`,
		"plain text":       `I cannot answer in JSON.`,
	}
	for name, raw := range cases {
		if _, err := ParseStructuredReply(raw); err == nil {
			t.Errorf("%s: expected error, got nil", name)
		}
	}
}

func TestBlueprintAddFragmentOrderAndReplace(t *testing.T) {
	var bp Blueprint
	bp.AddFragment(map[string]string{"problem": "first problem"})
	bp.AddFragment(map[string]string{"summary": "the summary"})
	bp.AddFragment(map[string]string{"problem": "revised problem"})

	if len(bp.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(bp.Sections))
	}
	// problem arrived first, so it keeps position 0 even after the revision.
	if bp.Sections[0].Key != "problem" || bp.Sections[0].Content != "revised problem" {
		t.Errorf("unexpected first section: %+v", bp.Sections[0])
	}
	if bp.Sections[1].Key != "summary" {
		t.Errorf("unexpected second section: %+v", bp.Sections[1])
	}
	if bp.FragmentsAdded != 3 {
		t.Errorf("expected 3 fragments recorded, got %d", bp.FragmentsAdded)
	}
}

func TestBlueprintMarkdownRoundTrip(t *testing.T) {
	var bp Blueprint
	bp.AddFragment(map[string]string{"problem": "Dentists lose hours to phone tag."})
	bp.AddFragment(map[string]string{"go_to_market": "Start with one regional dental association."})
	bp.AddFragment(map[string]string{"side_note": "Keep v1 single-clinic."})

	md := bp.Markdown()
	if !strings.HasPrefix(md, "# Business Blueprint\n") {
		t.Errorf("missing document title:\n%s", md)
	}
	for _, want := range []string{
		"## Customer and problem",
		"Dentists lose hours to phone tag.",
		"## Go-to-market hypothesis",
		"Start with one regional dental association.",
		"## Side note",
		"Keep v1 single-clinic.",
	} {
		if strings.Count(md, want) != 1 {
			t.Errorf("expected exactly one occurrence of %q in:\n%s", want, md)
		}
	}
	if strings.Index(md, "Customer and problem") > strings.Index(md, "Go-to-market hypothesis") {
		t.Error("sections rendered out of arrival order")
	}
	if strings.Contains(md, "Consistency check") {
		t.Error("consistency section rendered without a critic run")
	}
}

func TestBlueprintMarkdownCriticSection(t *testing.T) {
	var bp Blueprint
	bp.AddFragment(map[string]string{"summary": "A scheduling app for dentists."})

	bp.SetCriticIssues([]string{"Pricing assumes enterprise budgets but targets solo clinics."})
	md := bp.Markdown()
	if strings.Count(md, "## Consistency check (auto)") != 1 {
		t.Errorf("expected one consistency heading:\n%s", md)
	}
	if !strings.Contains(md, "1. Pricing assumes enterprise budgets") {
		t.Errorf("issue not rendered:\n%s", md)
	}

	bp.SetCriticIssues([]string{})
	if !strings.Contains(bp.Markdown(), "No internal contradictions detected.") {
		t.Error("clean scan should render the no-issues line")
	}
}

func TestBlueprintEmpty(t *testing.T) {
	var bp Blueprint
	if !bp.Empty() {
		t.Error("new blueprint should be empty")
	}
	bp.AddFragment(map[string]string{"summary": "x"})
	if bp.Empty() {
		t.Error("blueprint with a fragment should not be empty")
	}
}
