// Package session holds the per-conversation state: the ordered transcript,
// the most recently fetched article list, and the last rendered reply.
// State lives for the process lifetime only; nothing is persisted.
package session

import (
	"fmt"

	"github.com/google/uuid"

	"newsdesk/internal/news"
	"newsdesk/internal/types"
)

// Session owns its transcript and cached article list exclusively; all
// accessors return copies so no caller can mutate state across turns.
// The transcript is append-only: messages are never reordered or deleted
// within a session, and the seeded system message precedes all others.
type Session struct {
	id        string
	messages  []types.Message
	articles  []news.Article
	lastReply string
}

// New creates a session seeded with the system prompt.
func New(systemPrompt string) *Session {
	return &Session{
		id: uuid.NewString(),
		messages: []types.Message{
			{Role: types.RoleSystem, Content: systemPrompt},
		},
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// AppendUser appends a user message to the transcript. Empty utterances
// are dropped so they never pollute the transcript.
func (s *Session) AppendUser(content string) {
	if content == "" {
		return
	}
	s.messages = append(s.messages, types.Message{Role: types.RoleUser, Content: content})
}

// AppendAssistant appends an assistant message to the transcript.
func (s *Session) AppendAssistant(content string) {
	if content == "" {
		return
	}
	s.messages = append(s.messages, types.Message{Role: types.RoleAssistant, Content: content})
}

// Messages returns a copy of the transcript.
func (s *Session) Messages() []types.Message {
	out := make([]types.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of transcript messages.
func (s *Session) Len() int { return len(s.messages) }

// SetArticles replaces the cached article list wholesale. Index references
// held against the previous list are invalid from this point on.
func (s *Session) SetArticles(articles []news.Article) {
	s.articles = make([]news.Article, len(articles))
	copy(s.articles, articles)
}

// Articles returns a copy of the cached article list.
func (s *Session) Articles() []news.Article {
	out := make([]news.Article, len(s.articles))
	copy(out, s.articles)
	return out
}

// ArticleAt returns the cached article at a 1-based index. Indices outside
// [1, len] are a bounds error; the cached list is never mutated.
func (s *Session) ArticleAt(index int) (news.Article, error) {
	if index < 1 || index > len(s.articles) {
		return news.Article{}, fmt.Errorf("%w: article index %d out of range [1, %d]",
			types.ErrValidation, index, len(s.articles))
	}
	return s.articles[index-1], nil
}

// SetLastReply caches the most recent rendered reply.
func (s *Session) SetLastReply(reply string) { s.lastReply = reply }

// LastReply returns the most recent rendered reply.
func (s *Session) LastReply() string { return s.lastReply }
