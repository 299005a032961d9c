// internal/messaging/aggregate.go

package messaging

// BuildConversations folds a flat message list into distinct conversations
// from the current user's perspective. Input must be ordered newest first;
// the first message seen for a key is then the conversation's most recent
// one, and the output keeps that most-recently-active-first order.
//
// The fold is pure: no I/O, deterministic for a given input, safe to call
// repeatedly from any caching layer.
func BuildConversations(messages []*Message, currentUserID string) []*Conversation {
	byKey := make(map[ConversationKey]*Conversation)
	ordered := make([]*Conversation, 0)

	for _, msg := range messages {
		key := ConversationKey{
			OtherUserID: msg.CounterpartyTo(currentUserID),
			ListingID:   msg.ListingID,
		}

		conv, ok := byKey[key]
		if !ok {
			conv = &Conversation{
				OtherUserID: key.OtherUserID,
				ListingID:   key.ListingID,
				LastMessage: msg,
			}
			byKey[key] = conv
			ordered = append(ordered, conv)
		}

		// Unread counts the whole group, not just the representative
		// message: every message addressed to the current user that
		// has not been read yet.
		if msg.RecipientID == currentUserID && !msg.Read {
			conv.UnreadCount++
		}
	}

	return ordered
}
