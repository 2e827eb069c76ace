// Package game implements the Crapette (Russian Bank) rules: the card and
// pile model, the move validator, the turn state machine and the
// authoritative session that applies moves and emits diffs.
package game

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
)

// Suit of a standard French-suited card.
type Suit uint8

const (
	SuitHearts Suit = iota
	SuitDiamonds
	SuitClubs
	SuitSpades
)

var suitNames = [...]string{"hearts", "diamonds", "clubs", "spades"}

func (s Suit) String() string {
	if int(s) < len(suitNames) {
		return suitNames[s]
	}
	return "unknown"
}

// Color is the binary red/black classification used by tableau building.
type Color uint8

const (
	ColorRed Color = iota
	ColorBlack
)

// Color returns red for hearts/diamonds and black for clubs/spades.
func (s Suit) Color() Color {
	if s == SuitHearts || s == SuitDiamonds {
		return ColorRed
	}
	return ColorBlack
}

// MarshalJSON encodes the suit as its lowercase name ("hearts", ...).
func (s Suit) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a suit from its lowercase name.
func (s *Suit) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for i, n := range suitNames {
		if n == name {
			*s = Suit(i)
			return nil
		}
	}
	return fmt.Errorf("unknown suit %q", name)
}

// Rank with the fixed value table A=1 .. J=11, Q=12, K=13.
// Comparisons use the numeric value directly; there is no wraparound.
type Rank uint8

const (
	RankAce   Rank = 1
	RankTwo   Rank = 2
	RankThree Rank = 3
	RankFour  Rank = 4
	RankFive  Rank = 5
	RankSix   Rank = 6
	RankSeven Rank = 7
	RankEight Rank = 8
	RankNine  Rank = 9
	RankTen   Rank = 10
	RankJack  Rank = 11
	RankQueen Rank = 12
	RankKing  Rank = 13
)

func (r Rank) String() string {
	switch r {
	case RankAce:
		return "A"
	case RankJack:
		return "J"
	case RankQueen:
		return "Q"
	case RankKing:
		return "K"
	default:
		return fmt.Sprintf("%d", uint8(r))
	}
}

// MarshalJSON encodes the rank as "A", "2".."10", "J", "Q" or "K".
func (r Rank) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON decodes a rank from its string form.
func (r *Rank) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch name {
	case "A":
		*r = RankAce
	case "J":
		*r = RankJack
	case "Q":
		*r = RankQueen
	case "K":
		*r = RankKing
	default:
		var v uint8
		if _, err := fmt.Sscanf(name, "%d", &v); err != nil || v < 2 || v > 10 {
			return fmt.Errorf("unknown rank %q", name)
		}
		*r = Rank(v)
	}
	return nil
}

// Card has a stable identity for the whole match. Suit and rank never
// change; FaceUp is flipped by the session when the card becomes the
// exposed top of a stock or crapette pile.
type Card struct {
	ID     uuid.UUID `json:"id"`
	Suit   Suit      `json:"suit"`
	Rank   Rank      `json:"rank"`
	FaceUp bool      `json:"faceUp"`
}

func (c *Card) String() string {
	return fmt.Sprintf("%s of %s", c.Rank, c.Suit)
}

// DeckSize is the number of cards in one player's deck. Each match uses
// two independent decks, one per player.
const DeckSize = 52

// NewDeck builds a shuffled 52-card deck with fresh card identities.
// The caller provides the RNG so deals can be made deterministic in tests.
func NewDeck(r *rand.Rand) []*Card {
	deck := make([]*Card, 0, DeckSize)
	for suit := SuitHearts; suit <= SuitSpades; suit++ {
		for rank := RankAce; rank <= RankKing; rank++ {
			deck = append(deck, &Card{
				ID:   uuid.New(),
				Suit: suit,
				Rank: rank,
			})
		}
	}
	r.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	return deck
}
