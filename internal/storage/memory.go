package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

// memoryStore keeps all collections in process memory behind one mutex.
// It implements the same contract as the Mongo backend, including the
// atomic tally convergence, so tests and local development run without a
// database. Document ids are random UUIDs instead of backend object ids.
type memoryStore struct {
	mu        sync.Mutex
	users     map[string]User
	links     map[string]*Link
	questions map[string]*PremadeQuestion
	chatLogs  map[string]ChatLogEntry
	histories map[int64][]Exchange
	closed    bool
}

var errClosed = errors.New("record store is closed")

// NewMemory returns an empty in-memory RecordStore.
func NewMemory() RecordStore {
	return &memoryStore{
		users:     make(map[string]User),
		links:     make(map[string]*Link),
		questions: make(map[string]*PremadeQuestion),
		chatLogs:  make(map[string]ChatLogEntry),
		histories: make(map[int64][]Exchange),
	}
}

func (s *memoryStore) ListAll(ctx context.Context, database, collection string) ([]bson.M, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errClosed
	}

	// The memory backend hosts a single logical database; the database
	// argument only exists to satisfy the interface.
	docs := []bson.M{}
	switch collection {
	case CollectionUsers:
		for id, u := range s.users {
			docs = append(docs, bson.M{"_id": id, "name": u.Name, "email": u.Email})
		}
	case CollectionLinks:
		for id, l := range s.links {
			docs = append(docs, bson.M{"_id": id, "link_url": l.URL, "link_tally": l.Tally})
		}
	case CollectionQuestions:
		for id, q := range s.questions {
			docs = append(docs, bson.M{"_id": id, "question": q.Text, "q_tally": q.Tally})
		}
	case CollectionChatLog:
		for id, e := range s.chatLogs {
			docs = append(docs, bson.M{
				"_id":      id,
				"user_id":  e.UserID,
				"chat_log": e.ChatLog,
				"flags": bson.M{
					"response_flag_1": e.Flags.Good,
					"response_flag_2": e.Flags.Poor,
					"response_flag_3": e.Flags.Inappropriate,
					"save_flag":       e.Flags.Saved,
				},
			})
		}
	case CollectionChatHistory:
		for userID, history := range s.histories {
			pairs := make([]bson.M, 0, len(history))
			for _, ex := range history {
				pairs = append(pairs, bson.M{"user_input": ex.UserInput, "bot_response": ex.BotResponse})
			}
			docs = append(docs, bson.M{"user_id": userID, "chat_history": pairs})
		}
	}
	return docs, nil
}

func (s *memoryStore) InsertUser(ctx context.Context, name, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}

	normalized := normalizeEmail(email)
	for _, u := range s.users {
		if u.Email == normalized {
			return ErrDuplicate
		}
	}
	s.users[uuid.NewString()] = User{Name: name, Email: normalized}
	return nil
}

func (s *memoryStore) FindEmail(ctx context.Context, email string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", errClosed
	}

	normalized := normalizeEmail(email)
	for _, u := range s.users {
		if u.Email == normalized {
			return u.Email, nil
		}
	}
	return "", ErrNotFound
}

func (s *memoryStore) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}
	delete(s.users, id)
	return nil
}

func (s *memoryStore) InsertLink(ctx context.Context, linkURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}

	if l := s.findLink(linkURL); l != nil {
		l.Tally++
		return nil
	}
	s.links[uuid.NewString()] = &Link{URL: linkURL, Tally: 1}
	return nil
}

func (s *memoryStore) FindLinkCount(ctx context.Context, linkURL string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errClosed
	}

	var n int64
	for _, l := range s.links {
		if l.URL == linkURL {
			n++
		}
	}
	return n, nil
}

func (s *memoryStore) FindTally(ctx context.Context, linkURL string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errClosed
	}

	if l := s.findLink(linkURL); l != nil {
		return l.Tally, nil
	}
	return 0, ErrNotFound
}

func (s *memoryStore) UpdateLinkTally(ctx context.Context, linkURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}

	if l := s.findLink(linkURL); l != nil {
		l.Tally++
		return nil
	}
	return ErrNotFound
}

func (s *memoryStore) DeleteLink(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}
	delete(s.links, id)
	return nil
}

func (s *memoryStore) InsertQuestion(ctx context.Context, question string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}

	if q := s.findQuestion(question); q != nil {
		q.Tally++
		return nil
	}
	s.questions[uuid.NewString()] = &PremadeQuestion{Text: question, Tally: 1}
	return nil
}

func (s *memoryStore) FindQuestionCount(ctx context.Context, question string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errClosed
	}

	var n int64
	for _, q := range s.questions {
		if q.Text == question {
			n++
		}
	}
	return n, nil
}

func (s *memoryStore) UpdateQuestionTally(ctx context.Context, question string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}

	if q := s.findQuestion(question); q != nil {
		q.Tally++
		return nil
	}
	return ErrNotFound
}

func (s *memoryStore) DeleteQuestion(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}
	delete(s.questions, id)
	return nil
}

func (s *memoryStore) InsertChatLog(ctx context.Context, userID int64, chatLog string, flags ChatLogFlags) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}
	s.chatLogs[uuid.NewString()] = ChatLogEntry{UserID: userID, ChatLog: chatLog, Flags: flags}
	return nil
}

func (s *memoryStore) DeleteChatLog(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}
	delete(s.chatLogs, id)
	return nil
}

func (s *memoryStore) GetChatHistory(ctx context.Context, userID int64) ([]Exchange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errClosed
	}

	stored, ok := s.histories[userID]
	if !ok {
		return []Exchange{}, nil
	}
	history := make([]Exchange, len(stored))
	copy(history, stored)
	return history, nil
}

func (s *memoryStore) UpdateChatHistory(ctx context.Context, userID int64, history []Exchange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}

	replacement := make([]Exchange, len(history))
	copy(replacement, history)
	s.histories[userID] = replacement
	return nil
}

func (s *memoryStore) Stats(ctx context.Context) (*Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errClosed
	}

	return &Stats{
		Users:     int64(len(s.users)),
		Links:     int64(len(s.links)),
		Questions: int64(len(s.questions)),
		ChatLogs:  int64(len(s.chatLogs)),
		Histories: int64(len(s.histories)),
	}, nil
}

func (s *memoryStore) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// findLink and findQuestion assume the caller holds the mutex.
func (s *memoryStore) findLink(linkURL string) *Link {
	for _, l := range s.links {
		if l.URL == linkURL {
			return l
		}
	}
	return nil
}

func (s *memoryStore) findQuestion(question string) *PremadeQuestion {
	for _, q := range s.questions {
		if q.Text == question {
			return q
		}
	}
	return nil
}
