package handoff

import (
	"regexp"
	"strings"
)

var goalTokenSplit = regexp.MustCompile(`[^a-z0-9_./-]+`)

// GoalTokens lowercases and tokenizes the goal. Short tokens carry too
// little signal to score on and are dropped.
func GoalTokens(goal string) []string {
	var tokens []string
	for _, tok := range goalTokenSplit.Split(strings.ToLower(goal), -1) {
		if len(tok) >= 3 {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// ScoreTurns computes each turn's relevance to the goal in place. Longer
// token matches weigh more; a goal that names one of the turn's files weighs
// most of all.
func ScoreTurns(turns []*Turn, goal string) {
	tokens := GoalTokens(goal)
	goalLower := strings.ToLower(goal)
	for _, t := range turns {
		t.GoalScore = scoreTurn(t, tokens, goalLower)
	}
}

func scoreTurn(t *Turn, tokens []string, goalLower string) int {
	if len(tokens) == 0 {
		return 0
	}
	score := 0
	for _, tok := range tokens {
		if strings.Contains(t.SearchText, tok) {
			if len(tok) > 4 {
				score += 2
			} else {
				score++
			}
		}
	}
	for path := range t.FilePaths {
		pathLower := strings.ToLower(path)
		if strings.Contains(goalLower, pathLower) {
			score += 3
		}
		for _, tok := range tokens {
			if strings.Contains(pathLower, tok) {
				score++
			}
		}
	}
	return score
}
