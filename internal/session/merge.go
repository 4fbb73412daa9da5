package session

import (
	"strings"

	"github.com/genegpt-qa-server/internal/domain"
)

// Merge applies a partial update to a clinical state in place.
//
// Scalar fields follow last-write-wins: a present pointer always replaces
// the stored value, including an explicit empty value. List fields decay
// on every merge: existing scores drop by decayStep and items at or below
// zero fall off; incoming items refresh to maxScore, matching existing
// entries case-insensitively. The ClearSentinel empties a list outright.
func Merge(state *domain.ClinicalState, update domain.StateUpdate, maxScore, decayStep int) {
	if update.CurrentGene != nil {
		state.CurrentGene = *update.CurrentGene
	}
	if update.CurrentVariant != nil {
		state.CurrentVariant = *update.CurrentVariant
	}
	if update.VariantClassification != nil {
		state.VariantClassification = *update.VariantClassification
	}
	if update.TestContext != nil {
		state.TestContext = *update.TestContext
	}
	if update.UserEmotion != nil {
		state.UserEmotion = *update.UserEmotion
	}

	state.TopicsDiscussed = mergeTopics(state.TopicsDiscussed, update.TopicsDiscussed)
	state.UnresolvedQuestions = mergeUnresolved(state.UnresolvedQuestions, update.UnresolvedQuestions)
	state.RecentFacts = mergeScored(state.RecentFacts, update.RecentFacts, maxScore, decayStep)
	state.UserConcerns = mergeScored(state.UserConcerns, update.UserConcerns, maxScore, decayStep)
}

func hasSentinel(items []string) bool {
	for _, it := range items {
		if it == domain.ClearSentinel {
			return true
		}
	}
	return false
}

// mergeTopics unions new topics into the set, preserving insertion order.
func mergeTopics(existing, incoming []string) []string {
	if hasSentinel(incoming) {
		return []string{}
	}
	seen := make(map[string]bool, len(existing))
	for _, t := range existing {
		seen[t] = true
	}
	for _, t := range incoming {
		if t == "" || seen[t] {
			continue
		}
		existing = append(existing, t)
		seen[t] = true
	}
	return existing
}

// mergeUnresolved appends with exact-string dedup.
func mergeUnresolved(existing, incoming []string) []string {
	if hasSentinel(incoming) {
		return []string{}
	}
	for _, q := range incoming {
		if q == "" {
			continue
		}
		duplicate := false
		for _, have := range existing {
			if have == q {
				duplicate = true
				break
			}
		}
		if !duplicate {
			existing = append(existing, q)
		}
	}
	return existing
}

// mergeScored decays the list then folds in new items at full score.
func mergeScored(existing []domain.ScoredItem, incoming []string, maxScore, decayStep int) []domain.ScoredItem {
	if hasSentinel(incoming) {
		return []domain.ScoredItem{}
	}

	decayed := make([]domain.ScoredItem, 0, len(existing))
	for _, item := range existing {
		item.Score -= decayStep
		if item.Score > 0 {
			decayed = append(decayed, item)
		}
	}

	for _, text := range incoming {
		if text == "" {
			continue
		}
		refreshed := false
		for i := range decayed {
			if strings.EqualFold(decayed[i].Text, text) {
				decayed[i].Score = maxScore
				refreshed = true
				break
			}
		}
		if !refreshed {
			decayed = append(decayed, domain.ScoredItem{Text: text, Score: maxScore})
		}
	}
	return decayed
}
