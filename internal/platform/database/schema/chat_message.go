package schema

// MessageTable represents the 'chat.message' table
type MessageTable struct {
	Table     string
	ID        string
	GroupID   string
	SenderID  string
	Text      string
	LikeCount string
	CreatedAt string
}

// Message is the schema definition for chat.message
var Message = MessageTable{
	Table:     "chat.message",
	ID:        "id",
	GroupID:   "groupid",
	SenderID:  "senderid",
	Text:      "text",
	LikeCount: "likecount",
	CreatedAt: "createdat",
}

// MessageLikeTable represents the 'chat.messagelike' table
type MessageLikeTable struct {
	Table     string
	MessageID string
	UserID    string
	LikedAt   string
}

// MessageLike is the schema definition for chat.messagelike
var MessageLike = MessageLikeTable{
	Table:     "chat.messagelike",
	MessageID: "messageid",
	UserID:    "userid",
	LikedAt:   "likedat",
}
