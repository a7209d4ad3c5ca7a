package domain

import (
	"fmt"

	"chat-relay/errors"
)

// RoomKey addresses one conversation between exactly two identities.
// The key is order independent: NewRoomKey(a, b) == NewRoomKey(b, a).
// Rooms are addressed by their unordered pair of members, never by
// message direction.
type RoomKey string

// NewRoomKey canonicalizes the pair under the numeric identity order
// and derives the key. Both identities must be well formed.
func NewRoomKey(a, b Identity) (RoomKey, error) {
	if !a.IsValid() || !b.IsValid() {
		return "", fmt.Errorf("%w: %q, %q", errors.ErrInvalidIdentity, a, b)
	}
	low, high := a, b
	if high.Less(low) {
		low, high = high, low
	}
	return RoomKey(fmt.Sprintf("chat_%s_%s", low, high)), nil
}

func (k RoomKey) String() string { return string(k) }
