package fraud

import (
	"hash/fnv"
	"strings"

	"github.com/abouhashemahmed/heritage/internal/domain"
)

type Scorer struct{}

func NewScorer() *Scorer {
	return &Scorer{}
}

const (
	highValueCents     = 100_000 // 1000.00 in minor units
	veryHighValueCents = 500_000
	bulkQuantity       = 10
)

var suspiciousPhrases = []string{"urgent", "resell", "gift card"}

func (s *Scorer) Score(event domain.OrderCreatedEvent) float64 {
	var score float64

	if event.TotalCents >= highValueCents {
		score += 0.35
	}
	if event.TotalCents >= veryHighValueCents {
		score += 0.2
	}

	for _, item := range event.Items {
		if item.Quantity >= bulkQuantity {
			score += 0.25
			break
		}
	}

	note := strings.ToLower(event.Note)
	for _, phrase := range suspiciousPhrases {
		if strings.Contains(note, phrase) {
			score += 0.15
			break
		}
	}

	// Stable jitter from the order id.
	h := fnv.New32a()
	_, _ = h.Write([]byte(event.OrderID.String()))
	score += float64(h.Sum32()%100) / 1000.0

	if score > 1 {
		score = 1
	}
	return score
}
