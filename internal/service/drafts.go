package service

import (
	"context"
	"errors"

	"github.com/DoyleJ11/card-battle-backend/internal/card"
	"github.com/google/uuid"
)

var ErrDraftNotFound = errors.New("draft not found")
var ErrDraftIncomplete = errors.New("draft not complete")

type DraftResult struct {
	Failure
	DraftID string      `json:"draftId,omitempty"`
	Picked  *card.Card  `json:"picked,omitempty"`
	AIPick  *card.Card  `json:"aiPick,omitempty"`
	Draft   *card.Draft `json:"draft,omitempty"`
	Done    bool        `json:"done"`
}

func (s *Service) StartDraft() DraftResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	d := card.NewDraft(s.rng)
	s.drafts[id] = d
	return DraftResult{Failure: succeeded, DraftID: id, Draft: snapshotDraft(d)}
}

// DraftPick takes the human pick and lets the AI answer straight away.
func (s *Service) DraftPick(draftID, cardID string) DraftResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drafts[draftID]
	if !ok {
		return DraftResult{Failure: failed(ErrDraftNotFound)}
	}
	picked, err := d.PickHuman(cardID)
	if err != nil {
		return DraftResult{Failure: failed(err), DraftID: draftID, Draft: snapshotDraft(d)}
	}
	out := DraftResult{Failure: succeeded, DraftID: draftID, Picked: &picked}
	if ai, err := d.PickAI(); err == nil {
		out.AIPick = &ai
	}
	out.Draft = snapshotDraft(d)
	out.Done = d.Done()
	return out
}

// CreateDraftRoom opens a room whose hands are dealt from a finished draft.
func (s *Service) CreateDraftRoom(ctx context.Context, draftID string) CreateRoomResult {
	s.mu.Lock()
	d, ok := s.drafts[draftID]
	if ok && d.Done() {
		delete(s.drafts, draftID)
	}
	s.mu.Unlock()

	switch {
	case !ok:
		return CreateRoomResult{Failure: failed(ErrDraftNotFound)}
	case !d.Done():
		return CreateRoomResult{Failure: failed(ErrDraftIncomplete)}
	}

	rules := s.rules
	rules.HumanDeck, rules.AIDeck = d.Decks()
	return s.createRoom(ctx, rules, nil, nil)
}

func snapshotDraft(d *card.Draft) *card.Draft {
	cp := *d
	cp.Pool = nil
	cp.Offer = append([]card.Card(nil), d.Offer...)
	cp.HumanPicks, cp.AIPicks = d.Decks()
	return &cp
}
