package storage

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
)

// Logical collection names used by the chatbot backend.
const (
	CollectionUsers       = "users"
	CollectionLinks       = "links"
	CollectionChatLog     = "chatlog"
	CollectionQuestions   = "premade_questions"
	CollectionChatHistory = "chat_logs"
)

var (
	// ErrNotFound is returned when a lookup expecting a match finds none.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when an insert targets an already-present
	// unique key (e.g. a user email). Recoverable; the caller decides what
	// to do next.
	ErrDuplicate = errors.New("record already exists")
)

// Exchange is one (user input, bot response) pair of a chat history.
type Exchange struct {
	UserInput   string `bson:"user_input"`
	BotResponse string `bson:"bot_response"`
}

// ChatLogFlags carries the per-interaction feedback bits attached to a
// logged chat session.
type ChatLogFlags struct {
	Good          bool `bson:"response_flag_1"` // user reports a good answer
	Poor          bool `bson:"response_flag_2"` // incorrect or low quality answer
	Inappropriate bool `bson:"response_flag_3"` // inappropriate answer
	Saved         bool `bson:"save_flag"`       // chat was saved by the user
}

// Stats holds per-collection document counts for diagnostics and the
// Prometheus gauges.
type Stats struct {
	Users     int64
	Links     int64
	Questions int64
	ChatLogs  int64
	Histories int64
}

// RecordStore owns one document-database connection and exposes
// collection-scoped CRUD for the chatbot: users, shareable links, chat logs,
// premade questions and per-user chat histories.
//
// Links and premade questions are deduplicated by their key field; inserting
// an existing key bumps its tally atomically instead of creating a second
// document, so concurrent inserts of the same key converge on one document.
// Chat histories are upserted whole: the caller supplies the full replacement
// sequence, never an incremental append.
//
// All operations block until the backend responds; no retries happen
// internally and nothing is logged here. Close frees the connection; after
// Close the store must not be used.
type RecordStore interface {
	// ListAll returns every document in the named collection of the named
	// database. An empty or absent collection yields an empty slice.
	ListAll(ctx context.Context, database, collection string) ([]bson.M, error)

	// InsertUser stores a user after trimming and lower-casing the email.
	// Returns ErrDuplicate if a user with that email already exists.
	InsertUser(ctx context.Context, name, email string) error
	// FindEmail normalizes the input the same way InsertUser does and
	// returns the stored email; ErrNotFound when no user matches.
	FindEmail(ctx context.Context, email string) (string, error)
	DeleteUser(ctx context.Context, id string) error

	// InsertLink creates the link with tally 1 or, if the URL is already
	// present, increments its tally. One atomic backend round-trip.
	InsertLink(ctx context.Context, url string) error
	FindLinkCount(ctx context.Context, url string) (int64, error)
	// FindTally returns the current tally of the URL; ErrNotFound when the
	// link does not exist.
	FindTally(ctx context.Context, url string) (int64, error)
	// UpdateLinkTally adds 1 to the tally of an existing link;
	// ErrNotFound when the link does not exist.
	UpdateLinkTally(ctx context.Context, url string) error
	DeleteLink(ctx context.Context, id string) error

	// InsertQuestion follows the same tally policy as InsertLink, keyed on
	// the question text.
	InsertQuestion(ctx context.Context, question string) error
	FindQuestionCount(ctx context.Context, question string) (int64, error)
	UpdateQuestionTally(ctx context.Context, question string) error
	DeleteQuestion(ctx context.Context, id string) error

	// InsertChatLog always inserts a new document; no deduplication.
	InsertChatLog(ctx context.Context, userID int64, chatLog string, flags ChatLogFlags) error
	DeleteChatLog(ctx context.Context, id string) error

	// GetChatHistory returns the stored exchanges for the user in stored
	// order, or an empty slice if the user has no history yet.
	GetChatHistory(ctx context.Context, userID int64) ([]Exchange, error)
	// UpdateChatHistory replaces the user's whole history with the given
	// sequence, creating the document if absent.
	UpdateChatHistory(ctx context.Context, userID int64, history []Exchange) error

	// Stats reports document counts per collection.
	Stats(ctx context.Context) (*Stats, error)

	Close(ctx context.Context) error
}
