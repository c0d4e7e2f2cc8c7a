package storage

import "go.mongodb.org/mongo-driver/bson/primitive"

// User is a registered chatbot user. Email is stored trimmed and
// lower-cased and is unique within the collection.
type User struct {
	ID    primitive.ObjectID `bson:"_id,omitempty"`
	Name  string             `bson:"name"`
	Email string             `bson:"email"`
}

// Link is a deduplicated shareable URL with an occurrence tally.
// The tally starts at 1 and only ever grows; deleting the document is the
// only way down.
type Link struct {
	ID    primitive.ObjectID `bson:"_id,omitempty"`
	URL   string             `bson:"link_url"`
	Tally int64              `bson:"link_tally"`
}

// PremadeQuestion is a frequently-asked question offered by the chat UI,
// deduplicated by its text with the same tally lifecycle as Link.
type PremadeQuestion struct {
	ID    primitive.ObjectID `bson:"_id,omitempty"`
	Text  string             `bson:"question"`
	Tally int64              `bson:"q_tally"`
}

// ChatLogEntry records one logged interaction together with the user's
// feedback flags. Entries are never deduplicated.
type ChatLogEntry struct {
	ID      primitive.ObjectID `bson:"_id,omitempty"`
	UserID  int64              `bson:"user_id"`
	ChatLog string             `bson:"chat_log"`
	Flags   ChatLogFlags       `bson:"flags"`
}

// ChatHistory holds the ordered conversation of one user. At most one
// document exists per user_id.
type ChatHistory struct {
	ID      primitive.ObjectID `bson:"_id,omitempty"`
	UserID  int64              `bson:"user_id"`
	History []Exchange         `bson:"chat_history"`
}
