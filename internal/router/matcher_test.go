package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sheldon-92/personalmanager/internal/catalog"
)

const matcherDoc = `
version: "1.0"
locale: [zh-CN, en-US]
intents:
  - id: today
    phrases: ["今天做什么", "今日任务", "what's on today"]
    command: "pm today"
    locales: [zh-CN]
  - id: capture
    pattern: "记录 (?P<content>.+)"
    command: "pm capture {content}"
    args:
      content: {type: string, required: true}
    locales: [zh-CN]
  - id: report
    pattern: "report last (?P<days>[0-9]+) days as (?P<format>\\w+)"
    command: "pm report --days {days} --format {format}"
    args:
      days: {type: int, required: true}
      format: {type: enum, values: [text, json, table], default: text}
`

func mustSnapshot(t *testing.T, doc string) *catalog.Snapshot {
	t.Helper()
	snap, err := catalog.Parse([]byte(doc))
	require.NoError(t, err)
	return snap
}

func TestMatch_ExactPhrase(t *testing.T) {
	snap := mustSnapshot(t, matcherDoc)
	m := NewMatcher(0)

	got := m.Match("今天做什么", snap, "zh-CN")
	require.NotEmpty(t, got)
	assert.Equal(t, "today", got[0].Intent.ID)
	assert.Equal(t, MatchExactPhrase, got[0].Kind)
	assert.Equal(t, 1.0, got[0].Confidence)
}

func TestMatch_PhraseContainedInUtterance(t *testing.T) {
	snap := mustSnapshot(t, matcherDoc)
	m := NewMatcher(0)

	got := m.Match("  What's on TODAY please  ", snap, "en-US")
	require.NotEmpty(t, got)
	assert.Equal(t, "today", got[0].Intent.ID)
	assert.Equal(t, 1.0, got[0].Confidence)
}

func TestMatch_PatternConfidence(t *testing.T) {
	snap := mustSnapshot(t, matcherDoc)
	m := NewMatcher(0)

	// 9 runes total, 6 captured: confidence = 0.6 + 0.3*(3/9).
	got := m.Match("记录 完成项目文档", snap, "zh-CN")
	require.NotEmpty(t, got)
	assert.Equal(t, "capture", got[0].Intent.ID)
	assert.Equal(t, MatchPattern, got[0].Kind)
	assert.InDelta(t, 0.7, got[0].Confidence, 1e-9)
	assert.Equal(t, "完成项目文档", got[0].RawSlots["content"])
}

func TestMatch_MostlyLiteralPatternScoresHigher(t *testing.T) {
	snap := mustSnapshot(t, matcherDoc)
	m := NewMatcher(0)

	got := m.Match("report last 7 days as json", snap, "en-US")
	require.NotEmpty(t, got)
	assert.Equal(t, "report", got[0].Intent.ID)
	// 26 runes, 5 captured across two groups.
	assert.InDelta(t, 0.6+0.3*21.0/26.0, got[0].Confidence, 1e-9)
	assert.Equal(t, "7", got[0].RawSlots["days"])
	assert.Equal(t, "json", got[0].RawSlots["format"])
}

func TestMatch_PatternIsAnchored(t *testing.T) {
	snap := mustSnapshot(t, matcherDoc)
	m := NewMatcher(0)

	assert.Empty(t, m.Match("请记录 某事 谢谢", snap, "zh-CN"),
		"a pattern that only matches part of the utterance must not produce a candidate")
}

func TestMatch_ExactPhraseOutranksPattern(t *testing.T) {
	doc := `
version: "1.0"
intents:
  - id: catchall
    pattern: "(?P<anything>.+)"
    command: "pm note {anything}"
    args:
      anything: {type: string, required: true}
  - id: greet
    phrases: ["hello"]
    command: "pm greet"
`
	snap := mustSnapshot(t, doc)
	m := NewMatcher(0)

	got := m.Match("hello", snap, "")
	require.Len(t, got, 2)
	assert.Equal(t, "greet", got[0].Intent.ID,
		"exact phrase must outrank a pattern match regardless of position")
	assert.Equal(t, "catchall", got[1].Intent.ID)
	assert.Greater(t, got[0].Confidence, got[1].Confidence)
}

func TestMatch_PreferredLocaleBreaksTies(t *testing.T) {
	doc := `
version: "1.0"
locale: [zh-CN, en-US]
intents:
  - id: status-en
    phrases: ["status"]
    command: "pm status --lang en"
    locales: [en-US]
  - id: status-zh
    phrases: ["status"]
    command: "pm status --lang zh"
    locales: [zh-CN]
`
	snap := mustSnapshot(t, doc)
	m := NewMatcher(0)

	zh := m.Match("status", snap, "zh-CN")
	require.Len(t, zh, 2)
	assert.Equal(t, "status-zh", zh[0].Intent.ID)

	en := m.Match("status", snap, "en-US")
	require.Len(t, en, 2)
	assert.Equal(t, "status-en", en[0].Intent.ID)
}

func TestMatch_CatalogOrderBreaksRemainingTies(t *testing.T) {
	doc := `
version: "1.0"
intents:
  - id: first
    phrases: ["ping"]
    command: "pm first"
  - id: second
    phrases: ["ping"]
    command: "pm second"
`
	snap := mustSnapshot(t, doc)
	m := NewMatcher(0)

	got := m.Match("ping", snap, "")
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Intent.ID)
	assert.Equal(t, "second", got[1].Intent.ID)
}

func TestMatch_MinConfidenceFloor(t *testing.T) {
	doc := `
version: "1.0"
intents:
  - id: catchall
    pattern: "(?P<anything>.+)"
    command: "pm note {anything}"
    args:
      anything: {type: string, required: true}
`
	snap := mustSnapshot(t, doc)

	// An all-capture pattern scores the bare base.
	low := NewMatcher(0)
	got := low.Match("whatever", snap, "")
	require.Len(t, got, 1)
	assert.InDelta(t, patternBase, got[0].Confidence, 1e-9)

	strict := NewMatcher(0.65)
	assert.Empty(t, strict.Match("whatever", snap, ""))
}

func TestMatch_EmptyUtterance(t *testing.T) {
	snap := mustSnapshot(t, matcherDoc)
	m := NewMatcher(0)

	assert.Empty(t, m.Match("", snap, "zh-CN"))
	assert.Empty(t, m.Match("   \t ", snap, "zh-CN"))
}

func TestMatch_NoCandidates(t *testing.T) {
	snap := mustSnapshot(t, matcherDoc)
	m := NewMatcher(0)

	assert.Empty(t, m.Match("completely unrelated gibberish", snap, "zh-CN"))
}

func TestPatternConfidence_Bounds(t *testing.T) {
	assert.InDelta(t, patternBase, patternConfidence(10, 10), 1e-9)
	assert.InDelta(t, patternBase+patternSpan, patternConfidence(10, 0), 1e-9)
	assert.InDelta(t, patternBase, patternConfidence(0, 0), 1e-9)
	// Degenerate inputs stay clamped.
	assert.LessOrEqual(t, patternConfidence(5, 9), maxPatternConfidence)
	assert.GreaterOrEqual(t, patternConfidence(5, 9), patternBase)
}
