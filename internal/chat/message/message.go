// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package message defines group chat messages and their like sets, and the
repositories that persist them.

# Like Consistency

LikeCount always equals len(Likes). Both repositories change the two together
in a single atomic step, so concurrent togglers never lose an update.
*/
package message

import (
	"slices"
	"strings"
	"time"

	"github.com/taibuivan/huddle/internal/platform/validate"
	"github.com/taibuivan/huddle/pkg/uuid"
)

// # Domain Entities

// Message is a text post in a group.
type Message struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"group_id"`
	SenderID  string    `json:"sender_id"`
	Text      string    `json:"text"`
	Likes     []string  `json:"likes"`
	LikeCount int       `json:"like_count"`
	CreatedAt time.Time `json:"created_at"`
}

// Order selects the chronological direction of a message listing.
type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// ParseOrder maps a query value to an [Order]; anything unknown is ascending.
func ParseOrder(raw string) Order {
	if strings.EqualFold(strings.TrimSpace(raw), string(OrderDesc)) {
		return OrderDesc
	}
	return OrderAsc
}

const (
	FieldText     = "text"
	MaxTextLength = 4000

	resourceMessage = "Message"
	msgNotLiked     = "You have not liked this message"
)

/*
New builds an unpersisted message with no likes.

Returns:
  - error: ValidationError when the trimmed text is empty or too long
*/
func New(groupID, senderID, text string) (*Message, error) {
	text = strings.TrimSpace(text)

	validator := &validate.Validator{}
	validator.Required(FieldText, text).MaxLen(FieldText, text, MaxTextLength)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	return &Message{
		ID:        uuid.New(),
		GroupID:   groupID,
		SenderID:  senderID,
		Text:      text,
		Likes:     []string{},
		LikeCount: 0,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// LikedBy reports whether userID is in the like set.
func (message *Message) LikedBy(userID string) bool {
	return slices.Contains(message.Likes, userID)
}

// Clone returns a deep copy.
func (message *Message) Clone() *Message {
	copied := *message
	copied.Likes = slices.Clone(message.Likes)
	if copied.Likes == nil {
		copied.Likes = []string{}
	}
	return &copied
}
