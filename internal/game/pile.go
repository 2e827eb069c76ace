package game

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// PileKind is the closed set of pile roles in a session.
type PileKind uint8

const (
	PileStock PileKind = iota
	PileWaste
	PileCrapette
	PileHand
	PileTableau
	PileFoundation
)

var pileKindNames = [...]string{"stock", "waste", "crapette", "hand", "tableau", "foundation"}

func (k PileKind) String() string {
	if int(k) < len(pileKindNames) {
		return pileKindNames[k]
	}
	return "unknown"
}

// MarshalJSON encodes the kind as its lowercase name ("tableau", ...).
func (k PileKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a kind from its lowercase name. Unknown names are
// an error so malformed client destinations fail at decode time.
func (k *PileKind) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for i, n := range pileKindNames {
		if n == name {
			*k = PileKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown pile kind %q", name)
}

// ownedByPlayer reports whether piles of this kind belong to one player
// (as opposed to the shared board piles).
func (k PileKind) ownedByPlayer() bool {
	switch k {
	case PileStock, PileWaste, PileCrapette, PileHand:
		return true
	}
	return false
}

// PileRef identifies one pile within a session: the kind, plus the slot
// index for tableau/foundation piles or the owning player for
// stock/waste/crapette/hand piles. It doubles as the move destination
// descriptor on the wire and as the origin/destination of a Diff.
type PileRef struct {
	Kind  PileKind  `json:"kind"`
	Index int       `json:"index,omitempty"`
	Owner uuid.UUID `json:"ownerId,omitempty"`
}

func (ref PileRef) String() string {
	if ref.Kind.ownedByPlayer() {
		return fmt.Sprintf("%s[%s]", ref.Kind, ref.Owner)
	}
	return fmt.Sprintf("%s[%d]", ref.Kind, ref.Index)
}

// Pile is an ordered sequence of cards; the top is the last element.
type Pile struct {
	Kind  PileKind
	Index int       // slot index for tableau/foundation piles
	Owner uuid.UUID // owning player for stock/waste/crapette/hand piles
	Cards []*Card
}

// Ref returns the PileRef addressing this pile.
func (p *Pile) Ref() PileRef {
	ref := PileRef{Kind: p.Kind}
	if p.Kind.ownedByPlayer() {
		ref.Owner = p.Owner
	} else {
		ref.Index = p.Index
	}
	return ref
}

func (p *Pile) Len() int {
	return len(p.Cards)
}

func (p *Pile) Empty() bool {
	return len(p.Cards) == 0
}

// Top returns the exposed top card, or nil for an empty pile.
func (p *Pile) Top() *Card {
	if len(p.Cards) == 0 {
		return nil
	}
	return p.Cards[len(p.Cards)-1]
}

// Push places a card on top of the pile.
func (p *Pile) Push(c *Card) {
	p.Cards = append(p.Cards, c)
}

// Pop removes and returns the top card. For stock and crapette piles the
// newly exposed top, if any, is marked face up; the second return value
// is that card, or nil when nothing was revealed.
func (p *Pile) Pop() (card, revealed *Card) {
	if len(p.Cards) == 0 {
		return nil, nil
	}
	card = p.Cards[len(p.Cards)-1]
	p.Cards[len(p.Cards)-1] = nil
	p.Cards = p.Cards[:len(p.Cards)-1]

	if p.Kind == PileStock || p.Kind == PileCrapette {
		if top := p.Top(); top != nil && !top.FaceUp {
			top.FaceUp = true
			revealed = top
		}
	}
	return card, revealed
}
