package learner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roleguard/roleguard/pkg/moderation/learner"
)

func TestExtractCandidates_ScriptRuns(t *testing.T) {
	got := learner.ExtractCandidates("昨日メロンソーダを飲んだ while playing games", 2)

	assert.Contains(t, got, "昨日")
	assert.Contains(t, got, "メロンソーダ")
	assert.Contains(t, got, "while")
	assert.Contains(t, got, "playing")
	assert.Contains(t, got, "games")
}

func TestExtractCandidates_DropsHiraganaAndShortRuns(t *testing.T) {
	got := learner.ExtractCandidates("それはとてもいいですね 犬", 2)

	// Hiragana runs and one-rune Han runs never become candidates.
	assert.Empty(t, got)
}

func TestExtractCandidates_ProlongedSoundMark(t *testing.T) {
	got := learner.ExtractCandidates("サーバーで遊ぶ", 2)
	assert.Contains(t, got, "サーバー")
}

func TestExtractCandidates_FoldsWidthAndCase(t *testing.T) {
	got := learner.ExtractCandidates("ＧａｍｅＳ と ｶﾀｶﾅ", 2)
	assert.Contains(t, got, "games")
	assert.Contains(t, got, "カタカナ")
}

func TestExtractCandidates_Deduplicates(t *testing.T) {
	got := learner.ExtractCandidates("リンゴ リンゴ リンゴ", 2)
	count := 0
	for _, term := range got {
		if term == "リンゴ" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}
