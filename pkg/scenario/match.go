package scenario

// MatchKind identifies which branch of the match algorithm produced a
// MatchResult.
type MatchKind int

const (
	// MatchNone means no rule and no default_response applied.
	MatchNone MatchKind = iota
	// MatchResponse means a top-level rule's single response fired.
	MatchResponse
	// MatchTurn means a step within an active turn sequence fired.
	MatchTurn
	// MatchDefault means the scenario's default_response applied.
	MatchDefault
)

// MatchResult carries enough information to retrieve the response/failure
// without holding a reference into the Scenario's lifetime.
type MatchResult struct {
	Kind      MatchKind
	RuleIndex int
	TurnIndex int
}

// Match runs the matching algorithm from spec.md §4.1 against prompt:
//  1. If a turn sequence is active, test the current turn's expect pattern.
//  2. Otherwise walk rules in declaration order, skipping exhausted ones.
//  3. Falls through to MatchNone if nothing fires; callers apply
//     DefaultResponse themselves via MatchDefaultOrNone.
func (s *Scenario) Match(prompt string) MatchResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeRule >= 0 {
		rule := s.Responses[s.activeRule]
		turn := &rule.Turns[s.activeCursor]
		if turn.Expect.Matches(prompt) {
			result := MatchResult{Kind: MatchTurn, RuleIndex: s.activeRule, TurnIndex: s.activeCursor}
			s.activeCursor++
			if s.activeCursor >= len(rule.Turns) {
				s.activeRule = -1
				s.activeCursor = 0
			}
			return result
		}
		// Miss: clear the active sequence and fall through to rule scanning.
		s.activeRule = -1
		s.activeCursor = 0
	}

	for i, rule := range s.Responses {
		if rule.MaxMatches != nil && rule.matchCount >= *rule.MaxMatches {
			continue
		}
		if !rule.Pattern.Matches(prompt) {
			continue
		}
		rule.matchCount++
		if len(rule.Turns) > 0 {
			s.activeRule = i
			s.activeCursor = 0
		}
		return MatchResult{Kind: MatchResponse, RuleIndex: i}
	}

	return MatchResult{Kind: MatchNone}
}

// MatchDefaultOrNone runs Match and, on MatchNone, reports whether the
// scenario carries a DefaultResponse (in which case callers should treat it
// as MatchDefault).
func (s *Scenario) MatchDefaultOrNone(prompt string) MatchResult {
	r := s.Match(prompt)
	if r.Kind == MatchNone && s.DefaultResponse != nil {
		return MatchResult{Kind: MatchDefault}
	}
	return r
}

// Resolve returns the response/failure pair a MatchResult refers to.
func (s *Scenario) Resolve(r MatchResult) (*ResponseSpec, *FailureSpec, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch r.Kind {
	case MatchResponse:
		rule := s.Responses[r.RuleIndex]
		return &rule.Response, rule.Failure, true
	case MatchTurn:
		turn := &s.Responses[r.RuleIndex].Turns[r.TurnIndex]
		return &turn.Response, turn.Failure, true
	case MatchDefault:
		return s.DefaultResponse, nil, s.DefaultResponse != nil
	default:
		return nil, nil, false
	}
}

// ResetCounts clears every rule's match count and any active turn-sequence
// cursor; used between test cases (spec.md §4.1 "Reset hooks").
func (s *Scenario) ResetCounts() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeRule = -1
	s.activeCursor = 0
	for _, rule := range s.Responses {
		rule.matchCount = 0
	}
}
