package ui

import (
	"strings"
	"testing"

	"github.com/vanderheijden86/showroom/pkg/verify"
)

func TestRenderScoreBadge(t *testing.T) {
	for _, score := range []int{0, 59, 60, 99, 100} {
		badge := RenderScoreBadge(score)
		if badge == "" {
			t.Errorf("empty badge for score %d", score)
		}
	}
}

func TestRenderVerifyBadgeLabels(t *testing.T) {
	statuses := []verify.Status{
		verify.StatusIdle, verify.StatusTyping, verify.StatusValidating,
		verify.StatusMatched, verify.StatusPartialMatch, verify.StatusNoMatch,
		verify.StatusUnverifiable,
	}
	for _, st := range statuses {
		if !strings.Contains(RenderVerifyBadge(st), st.String()) {
			t.Errorf("badge for %v missing its label", st)
		}
	}
}

func TestRenderQueueBadge(t *testing.T) {
	if RenderQueueBadge(0) != "" {
		t.Error("badge rendered for empty queue")
	}
	if !strings.Contains(RenderQueueBadge(3), "3") {
		t.Error("badge missing depth")
	}
}

func TestRenderScoreBar(t *testing.T) {
	th := TestTheme()
	if RenderScoreBar(50, 0, th) != "" {
		t.Error("bar rendered at zero width")
	}
	bar := RenderScoreBar(50, 10, th)
	if !strings.Contains(bar, "█") || !strings.Contains(bar, "░") {
		t.Errorf("half bar missing fill or track: %q", bar)
	}
	full := RenderScoreBar(150, 10, th)
	if strings.Contains(full, "░") {
		t.Errorf("clamped full bar still has track: %q", full)
	}
}
