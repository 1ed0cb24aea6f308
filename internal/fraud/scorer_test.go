package fraud

import (
	"testing"

	"github.com/google/uuid"

	"github.com/abouhashemahmed/heritage/internal/domain"
)

func TestScoreBounds(t *testing.T) {
	scorer := NewScorer()

	events := []domain.OrderCreatedEvent{
		{OrderID: uuid.New(), TotalCents: 100},
		{OrderID: uuid.New(), TotalCents: 999_999_999, Note: "urgent gift card resell",
			Items: []domain.OrderItem{{Quantity: 500}}},
	}

	for _, event := range events {
		score := scorer.Score(event)
		if score < 0 || score > 1 {
			t.Errorf("score %f out of [0,1] for total %d", score, event.TotalCents)
		}
	}
}

func TestScoreDeterministic(t *testing.T) {
	scorer := NewScorer()
	event := domain.OrderCreatedEvent{
		OrderID:    uuid.MustParse("11111111-2222-3333-4444-555555555555"),
		TotalCents: 250_000,
		Items:      []domain.OrderItem{{Quantity: 3}},
	}

	first := scorer.Score(event)
	for i := 0; i < 5; i++ {
		if got := scorer.Score(event); got != first {
			t.Fatalf("score changed between calls: %f vs %f", first, got)
		}
	}
}

func TestScoreOrdering(t *testing.T) {
	scorer := NewScorer()
	id := uuid.MustParse("aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee")

	cheap := scorer.Score(domain.OrderCreatedEvent{
		OrderID: id, TotalCents: 1_000,
		Items: []domain.OrderItem{{Quantity: 1}},
	})
	expensive := scorer.Score(domain.OrderCreatedEvent{
		OrderID: id, TotalCents: 600_000,
		Items: []domain.OrderItem{{Quantity: 50}},
	})

	if expensive <= cheap {
		t.Errorf("expected bulk high-value order to score higher: cheap=%f expensive=%f", cheap, expensive)
	}
}
