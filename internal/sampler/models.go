package sampler

import "github.com/sanspareilsmyn/samplestream/internal/rng"

const (
	thousand = 1e3
	million  = 1e6
)

// Sentinel models the cost-effectiveness of a team watching for black-swan
// events, in basis points of existential risk averted per million dollars.
type Sentinel struct{}

func (Sentinel) Sample(seed *rng.Seed) float64 {
	blackSwansPerDecade := To{Low: 1, High: 7}.Sample(seed)
	chanceIdentifiedEarly := Beta{A: 5, B: 10}.Sample(seed)

	chanceExistential := Beta{A: 1, B: 100}.Sample(seed)
	chanceMitigateExistential := Beta{A: 5, B: thousand}.Sample(seed)

	chanceCatastrophic := Beta{A: 3, B: 100}.Sample(seed)
	chanceMitigateCatastrophic := Beta{A: 2, B: 100}.Sample(seed)

	catastrophicToExistential := To{Low: 10, High: 1000}.Sample(seed)

	averted := chanceExistential*chanceMitigateExistential +
		chanceCatastrophic*chanceMitigateCatastrophic/catastrophicToExistential

	costPerDecade := To{Low: 150 * thousand, High: 500 * thousand}.Sample(seed) * 10

	return blackSwansPerDecade * chanceIdentifiedEarly * (100 * 100 * averted) / (costPerDecade / million)
}
