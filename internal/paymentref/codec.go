package paymentref

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// IntentKind names the domain action a checkout was created for.
type IntentKind string

const (
	KindCoursePurchase IntentKind = "course_purchase"
	KindSubscription   IntentKind = "subscription"
)

// Separator never appears in kind tags or numeric fields, so a reference
// splits unambiguously even when built from attacker-controlled input.
const Separator = ":"

const fieldCount = 4

var ErrMalformedReference = errors.New("malformed_reference")

// Token correlates a gateway transaction back to the (entity, user) intent
// that created it. IssuedAt disambiguates repeat purchases by the same pair.
type Token struct {
	Kind     IntentKind
	EntityID int64
	UserID   int64
	IssuedAt int64
}

// Encode serializes the token as kind:entityID:userID:issuedAtMillis.
func Encode(t Token) string {
	return fmt.Sprintf("%s%s%d%s%d%s%d",
		t.Kind, Separator,
		t.EntityID, Separator,
		t.UserID, Separator,
		t.IssuedAt,
	)
}

// Decode parses a reference string round-tripped through the gateway. It
// returns ErrMalformedReference on any input that does not match the encoded
// shape and never panics on garbled strings.
func Decode(raw string) (Token, error) {
	parts := strings.Split(raw, Separator)
	if len(parts) != fieldCount {
		return Token{}, ErrMalformedReference
	}

	kind, err := parseKind(parts[0])
	if err != nil {
		return Token{}, err
	}
	entityID, err := parseID(parts[1])
	if err != nil {
		return Token{}, err
	}
	userID, err := parseID(parts[2])
	if err != nil {
		return Token{}, err
	}
	issuedAt, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil || issuedAt < 0 {
		return Token{}, ErrMalformedReference
	}

	return Token{
		Kind:     kind,
		EntityID: entityID,
		UserID:   userID,
		IssuedAt: issuedAt,
	}, nil
}

func parseKind(raw string) (IntentKind, error) {
	switch IntentKind(raw) {
	case KindCoursePurchase:
		return KindCoursePurchase, nil
	case KindSubscription:
		return KindSubscription, nil
	default:
		return "", ErrMalformedReference
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrMalformedReference
	}
	return id, nil
}
