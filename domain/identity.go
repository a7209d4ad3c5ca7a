// Package domain contains core concepts of the relay.
// This file defines the Identity value and its ordering rules.
// No runtime, network, or UI logic should be added here.
package domain

// Identity is the opaque stable identifier of a participant.
// In this product it is a phone number: a non-empty string of ASCII digits.
type Identity string

// IsValid reports whether the identity is well formed.
// The check is a domain rule, applied once at the session or HTTP boundary;
// registries and the router may assume validated identities afterwards.
func (i Identity) IsValid() bool {
	if len(i) == 0 {
		return false
	}
	for _, r := range i {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Less orders identities by their numeric value.
// Digit strings compare by length first, then lexicographically,
// which matches numeric order without overflow on long phone numbers.
func (i Identity) Less(other Identity) bool {
	if len(i) != len(other) {
		return len(i) < len(other)
	}
	return i < other
}

func (i Identity) String() string { return string(i) }
