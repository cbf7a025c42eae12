package session

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// SessionSummary distills one conversation session into a paragraph
// with its key entities and outcome
type SessionSummary struct {
	SessionID   string    `json:"session_id"`
	UserID      string    `json:"user_id"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	TurnCount   int       `json:"turn_count"`
	Summary     string    `json:"summary"`
	KeyEntities []string  `json:"key_entities,omitempty"`
	Outcome     string    `json:"outcome"`
}

// UserProfile accumulates long-term patterns across sessions
type UserProfile struct {
	UserID       string   `json:"user_id"`
	SessionCount int      `json:"session_count"`
	CommonTopics []string `json:"common_topics,omitempty"`
}

// Summarizer produces summaries at three granularities: per turn
// (about 5:1 compression), per session (10:1), and per user (20:1).
// Recent context stays detailed, long-term context gets compressed.
// It is safe for concurrent use.
type Summarizer struct {
	mu               sync.Mutex
	turnSummaries    map[int]string
	sessionSummaries map[string]*SessionSummary
	userProfiles     map[string]*UserProfile
}

// NewSummarizer creates an empty summarizer
func NewSummarizer() *Summarizer {
	return &Summarizer{
		turnSummaries:    make(map[int]string),
		sessionSummaries: make(map[string]*SessionSummary),
		userProfiles:     make(map[string]*UserProfile),
	}
}

// SummarizeTurn condenses one turn to a sentence. Production systems
// would delegate to an LLM; this keeps the lead of the content.
func (s *Summarizer) SummarizeTurn(turn Turn) string {
	content := turn.Content
	if len(content) > 50 {
		content = content[:50] + "..."
	}

	var summary string
	if turn.Role == "user" {
		summary = "User asked about: " + content
	} else {
		summary = "Assistant provided: " + content
	}

	s.mu.Lock()
	s.turnSummaries[turn.ID] = summary
	s.mu.Unlock()
	return summary
}

// SummarizeSession distills a whole session: topics, entities, and
// whether the conversation reached a resolution
func (s *Summarizer) SummarizeSession(sessionID, userID string, turns []Turn) *SessionSummary {
	topics := extractTopics(turns)

	summary := &SessionSummary{
		SessionID: sessionID,
		UserID:    userID,
		TurnCount: len(turns),
		Outcome:   "unknown",
	}
	if len(turns) > 0 {
		summary.StartTime = turns[0].Timestamp
		summary.EndTime = turns[len(turns)-1].Timestamp
	}

	head := topics
	if len(head) > 5 {
		head = head[:5]
	}
	summary.Summary = "Session covered: " + strings.Join(head, ", ")
	if len(topics) > 10 {
		topics = topics[:10]
	}
	summary.KeyEntities = topics

	for _, turn := range turns {
		if strings.Contains(strings.ToLower(turn.Content), "thank") {
			summary.Outcome = "resolved"
			break
		}
	}

	s.mu.Lock()
	s.sessionSummaries[sessionID] = summary
	s.mu.Unlock()
	return summary
}

// UpdateUserProfile folds a session summary into the user's long-term
// profile, keeping the ten most frequent topics
func (s *Summarizer) UpdateUserProfile(userID string, session *SessionSummary) *UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.userProfiles[userID]
	if !ok {
		profile = &UserProfile{UserID: userID}
		s.userProfiles[userID] = profile
	}
	profile.SessionCount++

	entities := session.KeyEntities
	if len(entities) > 3 {
		entities = entities[:3]
	}
	profile.CommonTopics = append(profile.CommonTopics, entities...)

	counts := make(map[string]int)
	for _, topic := range profile.CommonTopics {
		counts[topic]++
	}
	unique := make([]string, 0, len(counts))
	for topic := range counts {
		unique = append(unique, topic)
	}
	sort.SliceStable(unique, func(i, j int) bool {
		if counts[unique[i]] != counts[unique[j]] {
			return counts[unique[i]] > counts[unique[j]]
		}
		return unique[i] < unique[j]
	})
	if len(unique) > 10 {
		unique = unique[:10]
	}
	profile.CommonTopics = unique

	return profile
}

// Profile returns the stored profile for a user, or nil
func (s *Summarizer) Profile(userID string) *UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userProfiles[userID]
}

// extractTopics collects distinctive words from the turns, longest
// words first as a cheap significance proxy
func extractTopics(turns []Turn) []string {
	seen := make(map[string]bool)
	var topics []string
	for _, turn := range turns {
		for _, word := range strings.Fields(strings.ToLower(turn.Content)) {
			word = strings.Trim(word, ".,!?'\"")
			if len(word) > 6 && !seen[word] {
				seen[word] = true
				topics = append(topics, word)
			}
		}
	}
	return topics
}

// String renders a session summary for logs
func (ss *SessionSummary) String() string {
	return fmt.Sprintf("session %s (%d turns, %s): %s", ss.SessionID, ss.TurnCount, ss.Outcome, ss.Summary)
}
