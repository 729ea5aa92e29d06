package session

import (
	"encoding/json"
	"fmt"
	"slices"
)

// clone deep-copies a session so stores never share maps with callers.
func (s *Session) clone() *Session {
	out := *s
	out.Context = s.Context.Clone()
	return &out
}

func sortByUpdate(sessions []*Session) {
	slices.SortFunc(sessions, func(a, b *Session) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
}

func marshal(s *Session) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	return data, nil
}

func unmarshal(data []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	// normalizes missing maps
	s.Context = s.Context.Clone()
	return &s, nil
}
