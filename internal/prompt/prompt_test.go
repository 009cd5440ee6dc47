package prompt

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeCompleter records calls and returns a canned reply.
type fakeCompleter struct {
	reply  string
	err    error
	system string
	user   string
	calls  int
}

func (f *fakeCompleter) CompleteText(_ context.Context, system, user string) (string, error) {
	f.calls++
	f.system, f.user = system, user
	return f.reply, f.err
}

func mustSelection(t *testing.T, m Motion, toggles ...Toggle) Selection {
	t.Helper()
	sel, err := NewSelection(m, toggles...)
	if err != nil {
		t.Fatalf("NewSelection: %v", err)
	}
	return sel
}

func TestCheckTables(t *testing.T) {
	if err := checkTables(); err != nil {
		t.Fatalf("lookup tables incomplete: %v", err)
	}
}

func TestNewSelectionRejectsOutOfRange(t *testing.T) {
	if _, err := NewSelection(motionCount); err == nil {
		t.Error("expected error for motion out of range")
	}
	if _, err := NewSelection(MotionNone, toggleCount); err == nil {
		t.Error("expected error for toggle out of range")
	}
}

func TestParseMotion(t *testing.T) {
	for m := Motion(0); m < motionCount; m++ {
		got, err := ParseMotion(strings.ToUpper(m.String()))
		if err != nil || got != m {
			t.Errorf("ParseMotion(%q) = (%v, %v), want %v", m.String(), got, err, m)
		}
	}
	if _, err := ParseMotion("dolly"); err == nil {
		t.Error("expected error for unknown motion")
	}
}

func TestPostProcessStripsLabelsAndJoins(t *testing.T) {
	raw := "**Subject:** A woman in her thirties\n\n- Clothing: red coat\nLIGHTING: soft daylight.\nCamera angle: eye level"
	got := PostProcess(raw, Selection{})
	want := "A woman in her thirties red coat soft daylight. eye level."
	if got != want {
		t.Errorf("PostProcess() = %q, want %q", got, want)
	}
}

func TestPostProcessKeepsUnknownLabel(t *testing.T) {
	got := PostProcess("Mood: calm evening", Selection{})
	if got != "Mood: calm evening." {
		t.Errorf("got %q", got)
	}
}

func TestPostProcessStripsQuotes(t *testing.T) {
	tests := []string{
		`"A young man walking a dog along the beach."`,
		"“A young man walking a dog along the beach.”",
	}
	for _, in := range tests {
		got := PostProcess(in, Selection{})
		if strings.HasPrefix(got, `"`) || strings.HasSuffix(got, `"`) || strings.ContainsAny(got, "“”") {
			t.Errorf("PostProcess(%q) = %q, quotes not stripped", in, got)
		}
		if got != "A young man walking a dog along the beach." {
			t.Errorf("PostProcess(%q) = %q", in, got)
		}
	}
}

func TestPostProcessSinglePeriod(t *testing.T) {
	for _, in := range []string{"A cat", "A cat.", "A cat...", "A cat. . "} {
		if got := PostProcess(in, Selection{}); got != "A cat." {
			t.Errorf("PostProcess(%q) = %q, want %q", in, got, "A cat.")
		}
	}
}

func TestPostProcessIdempotent(t *testing.T) {
	sels := []Selection{
		{},
		mustSelection(t, MotionPan, ToggleFaceMask),
		mustSelection(t, MotionNone, ToggleFaceMask, ToggleSelfiePose, ToggleFaceHidden),
	}
	inputs := []string{
		"A cinematic shot of a man reading on a train",
		"Subject: a dog\nEnvironment: a snowy field",
		`"A quiet street at dusk."`,
	}
	for _, sel := range sels {
		for _, in := range inputs {
			once := PostProcess(in, sel)
			twice := PostProcess(once, sel)
			if once != twice {
				t.Errorf("not idempotent:\n once  %q\n twice %q", once, twice)
			}
		}
	}
}

func TestPostProcessAppendsCompositionClauses(t *testing.T) {
	sel := mustSelection(t, MotionNone, ToggleFaceHidden, ToggleFaceMask)
	got := PostProcess("A person sitting on a bench.", sel)
	want := "A person sitting on a bench, " + ToggleFaceMask.Clause() + ", " + ToggleFaceHidden.Clause() + "."
	if got != want {
		t.Errorf("PostProcess() = %q, want %q", got, want)
	}
}

func TestPostProcessClausesSurviveEmptyRemote(t *testing.T) {
	sel := mustSelection(t, MotionNone, ToggleSelfiePose)
	got := PostProcess("", sel)
	if got != ToggleSelfiePose.Clause()+"." {
		t.Errorf("got %q", got)
	}
}

func TestSystemInstruction(t *testing.T) {
	plain := SystemInstruction(Selection{})
	if strings.Contains(plain, "Additional instructions") {
		t.Error("no modifiers should produce no additional instructions")
	}
	if !strings.Contains(plain, persona) || !strings.Contains(plain, formatConstraints) {
		t.Error("instruction missing persona or format constraints")
	}

	sel := mustSelection(t, MotionOrbit, ToggleFaceHidden, ToggleFaceMask)
	got := SystemInstruction(sel)
	orbit := strings.Index(got, MotionOrbit.Phrase())
	mask := strings.Index(got, ToggleFaceMask.Clause())
	hidden := strings.Index(got, ToggleFaceHidden.Clause())
	if orbit < 0 || mask < 0 || hidden < 0 {
		t.Fatalf("instruction missing fragments: %q", got)
	}
	if !(orbit < mask && mask < hidden) {
		t.Error("fragments not in fixed order")
	}
}

func TestUserTurnKeepsEmptyAnnotation(t *testing.T) {
	got := UserTurn("A dog.", "", Selection{})
	if !strings.Contains(got, "User annotation: \n") {
		t.Errorf("empty annotation segment missing: %q", got)
	}
}

func TestMergeFallsBackToBase(t *testing.T) {
	fc := &fakeCompleter{err: errors.New("status 500")}
	m := NewMerger(fc)
	got, err := m.Merge(context.Background(), "A dog in a yard.", "", Selection{})
	if err == nil {
		t.Error("expected error to be reported")
	}
	if got != "A dog in a yard." {
		t.Errorf("got %q, want base description", got)
	}
}

func TestFinalizeParkScenario(t *testing.T) {
	base := "A woman standing in a park, wearing a t-shirt and jeans."
	fc := &fakeCompleter{reply: "\"A cinematic shot of a woman standing in a park, wearing a t-shirt and jeans..\""}
	sel := mustSelection(t, MotionStatic, ToggleSelfiePose)

	got, err := NewMerger(fc).Finalize(context.Background(), base, "", sel)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == "" {
		t.Fatal("empty result")
	}
	if !strings.HasSuffix(got, ToggleSelfiePose.Clause()+".") {
		t.Errorf("result does not end with clause: %q", got)
	}
	if strings.HasSuffix(got, "..") {
		t.Errorf("more than one trailing period: %q", got)
	}
	if !strings.Contains(fc.user, base) {
		t.Errorf("base not sent in user turn: %q", fc.user)
	}
}

func TestFinalizeDegradedKeepsClauses(t *testing.T) {
	fc := &fakeCompleter{err: errors.New("boom")}
	sel := mustSelection(t, MotionNone, ToggleFaceMask)
	got, err := NewMerger(fc).Finalize(context.Background(), "Subject: a cyclist", "", sel)
	if err == nil {
		t.Error("expected error")
	}
	want := "a cyclist, " + ToggleFaceMask.Clause() + "."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestTransformsFallBack(t *testing.T) {
	fc := &fakeCompleter{err: errors.New("down")}
	if got, err := Optimize(context.Background(), fc, "orig"); got != "orig" || err == nil {
		t.Errorf("Optimize = (%q, %v)", got, err)
	}
	if got, err := TranslateToJapanese(context.Background(), fc, "orig"); got != "orig" || err == nil {
		t.Errorf("TranslateToJapanese = (%q, %v)", got, err)
	}
}

func TestTranslateToJapanese(t *testing.T) {
	fc := &fakeCompleter{reply: " 公園に立つ女性。 "}
	got, err := TranslateToJapanese(context.Background(), fc, "A woman in a park.")
	if err != nil || got != "公園に立つ女性。" {
		t.Errorf("got (%q, %v)", got, err)
	}
	if fc.user != "A woman in a park." || !strings.Contains(fc.system, "Japanese") {
		t.Errorf("unexpected call: system=%q user=%q", fc.system, fc.user)
	}
}
