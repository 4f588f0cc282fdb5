// Package domain contains core concepts of the relay and the feed.
// No runtime, network, or storage logic should be added here.
package domain

import (
	"fmt"
	"strings"

	"whisperwall/errors"
)

// CodeLength is the number of digits of a pseudonymous code.
const CodeLength = 4

// Code identifies a pseudonymous actor.
type Code string

func (c Code) String() string {
	return string(c)
}

// ParseCode accepts exactly four ASCII digits.
func ParseCode(s string) (Code, error) {
	if len(s) != CodeLength {
		return "", fmt.Errorf("%w: %q", errors.ErrInvalidCode, s)
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return "", fmt.Errorf("%w: %q", errors.ErrInvalidCode, s)
		}
	}
	return Code(s), nil
}

// ConversationKey names a room. The relay never interprets it.
type ConversationKey string

const pairSeparator = ":"

func (k ConversationKey) String() string {
	return string(k)
}

// NewConversationKey returns the canonical key of the unordered pair {a, b}.
func NewConversationKey(a, b Code) ConversationKey {
	if b < a {
		a, b = b, a
	}
	return ConversationKey(string(a) + pairSeparator + string(b))
}

// ParseConversationKey accepts any non-empty key without whitespace.
func ParseConversationKey(s string) (ConversationKey, error) {
	if s == "" || strings.ContainsAny(s, " \t\r\n") {
		return "", fmt.Errorf("%w: %q", errors.ErrInvalidConversation, s)
	}
	return ConversationKey(s), nil
}

// Participants splits a canonical pair key.
func (k ConversationKey) Participants() (Code, Code, error) {
	parts := strings.Split(string(k), pairSeparator)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("%w: %q is not a pair", errors.ErrInvalidConversation, k)
	}
	a, err := ParseCode(parts[0])
	if err != nil {
		return "", "", err
	}
	b, err := ParseCode(parts[1])
	if err != nil {
		return "", "", err
	}
	return a, b, nil
}

// Peer returns the other participant of a canonical pair key.
func (k ConversationKey) Peer(self Code) (Code, error) {
	a, b, err := k.Participants()
	if err != nil {
		return "", err
	}
	switch self {
	case a:
		return b, nil
	case b:
		return a, nil
	default:
		return "", fmt.Errorf("%w: %s is not part of %s", errors.ErrInvalidConversation, self, k)
	}
}
