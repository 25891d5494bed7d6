package context

import (
	"strings"
	"testing"

	"github.com/user/sheetpilot/internal/types"
)

func TestBuildTranscriptOrderAndCue(t *testing.T) {
	turns := []types.Turn{
		{Role: types.RoleSystem, Content: "You are an assistant."},
		{Role: types.RoleUser, Content: "Sum column A"},
		{Role: types.RoleAssistant, Content: "Use =SUM(A:A)."},
	}

	text := BuildTranscript(turns)

	if !strings.HasPrefix(text, "System: You are an assistant.\n\n") {
		t.Errorf("expected system block first, got %q", text[:40])
	}
	if !strings.HasSuffix(text, "Assistant:") {
		t.Errorf("expected open assistant cue at end, got %q", text[len(text)-20:])
	}

	sysIdx := strings.Index(text, "System:")
	userIdx := strings.Index(text, "User:")
	asstIdx := strings.Index(text, "Assistant: Use")
	if !(sysIdx < userIdx && userIdx < asstIdx) {
		t.Errorf("blocks out of order: system=%d user=%d assistant=%d", sysIdx, userIdx, asstIdx)
	}
}

func TestBuildTranscriptDeterministic(t *testing.T) {
	turns := []types.Turn{
		{Role: types.RoleSystem, Content: "prompt"},
		{Role: types.RoleUser, Content: "question with\nnewlines and ``` fences"},
	}

	first := BuildTranscript(turns)
	second := BuildTranscript(turns)
	if first != second {
		t.Error("expected byte-identical output for identical input")
	}
}

func TestBuildTranscriptEmpty(t *testing.T) {
	if got := BuildTranscript(nil); got != "Assistant:" {
		t.Errorf("expected bare cue for empty sequence, got %q", got)
	}
}
