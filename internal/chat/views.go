// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package chat

import (
	"time"

	"github.com/taibuivan/huddle/internal/chat/group"
	"github.com/taibuivan/huddle/internal/chat/message"
	"github.com/taibuivan/huddle/internal/users/auth"
)

// # Read Views

// GroupDetails is a group with its admins and members resolved to users.
// Users deleted since they joined are omitted.
type GroupDetails struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Slug      string         `json:"slug"`
	Owner     *auth.Summary  `json:"owner,omitempty"`
	Admins    []auth.Summary `json:"admins"`
	Members   []auth.Summary `json:"members"`
	CreatedAt time.Time      `json:"created_at"`
}

func newGroupDetails(g *group.Group, users map[string]*auth.User) *GroupDetails {
	details := &GroupDetails{
		ID:        g.ID,
		Name:      g.Name,
		Slug:      g.Slug,
		Admins:    summaries(g.Admins, users),
		Members:   summaries(g.Members, users),
		CreatedAt: g.CreatedAt,
	}
	if owner, found := users[g.OwnerID]; found {
		summary := owner.Summary()
		details.Owner = &summary
	}
	return details
}

func summaries(ids []string, users map[string]*auth.User) []auth.Summary {
	result := make([]auth.Summary, 0, len(ids))
	for _, id := range ids {
		if user, found := users[id]; found {
			result = append(result, user.Summary())
		}
	}
	return result
}

// MessageView is a message as shown to one viewer.
type MessageView struct {
	ID             string    `json:"id"`
	GroupID        string    `json:"group_id"`
	SenderID       string    `json:"sender_id"`
	SenderUsername string    `json:"sender_username"`
	Text           string    `json:"text"`
	Likes          []string  `json:"likes"`
	LikeCount      int       `json:"like_count"`
	LikedByCaller  bool      `json:"liked_by_caller"`
	CreatedAt      time.Time `json:"created_at"`
}

func newMessageView(m *message.Message, senderUsername, viewerID string) *MessageView {
	return &MessageView{
		ID:             m.ID,
		GroupID:        m.GroupID,
		SenderID:       m.SenderID,
		SenderUsername: senderUsername,
		Text:           m.Text,
		Likes:          m.Likes,
		LikeCount:      m.LikeCount,
		LikedByCaller:  viewerID != "" && m.LikedBy(viewerID),
		CreatedAt:      m.CreatedAt,
	}
}

// LikeResult is the outcome of a like toggle. Likes is the new count.
type LikeResult struct {
	MessageID string `json:"message_id"`
	Likes     int    `json:"likes"`
	Liked     bool   `json:"liked"`
}
