package quest

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/mkendall/tandem/internal/model"
)

// defaultPerDay is how many quests a daily set contains.
const defaultPerDay = 3

// Generator produces a couple's daily quest set from the catalog.
//
// Generation is deterministic per (coupleID, dateKey): the selection is
// seeded from those two values and quest ids are name-based UUIDs, so two
// devices that race on an empty day produce the identical set and the
// remote last-writer-wins window is content-neutral. Idempotence across
// repeated calls is still the Reconciler's job, not the generator's.
type Generator struct {
	catalog []CatalogEntry
	perDay  int
}

func NewGenerator(catalog []CatalogEntry, perDay int) *Generator {
	if len(catalog) == 0 {
		catalog = DefaultCatalog()
	}
	if perDay <= 0 {
		perDay = defaultPerDay
	}
	if perDay > len(catalog) {
		perDay = len(catalog)
	}
	return &Generator{catalog: catalog, perDay: perDay}
}

// Generate builds the quest set for a couple and date. The result is
// persisted and pushed by the caller; Generate itself touches no store.
func (g *Generator) Generate(coupleID, userID, partnerID int64, dateKey string) []model.Quest {
	rng := rand.New(rand.NewSource(seed(coupleID, dateKey)))

	// Membership order differs between the two devices, so assignment
	// draws from a sorted pair to stay device-independent.
	lo, hi := userID, partnerID
	if hi < lo {
		lo, hi = hi, lo
	}

	picks := rng.Perm(len(g.catalog))[:g.perDay]
	now := time.Now().UTC()

	quests := make([]model.Quest, 0, g.perDay)
	for i, pick := range picks {
		entry := g.catalog[pick]

		assigned := model.AssignedBoth
		if !entry.Shared {
			if rng.Intn(2) == 0 {
				assigned = strconv.FormatInt(lo, 10)
			} else {
				assigned = strconv.FormatInt(hi, 10)
			}
		}

		quests = append(quests, model.Quest{
			ID:         questID(coupleID, dateKey, i),
			CoupleID:   coupleID,
			DateKey:    dateKey,
			Kind:       entry.Kind,
			Title:      entry.Titles[rng.Intn(len(entry.Titles))],
			AssignedTo: assigned,
			Reward:     entry.Reward,
			CreatedAt:  now,
		})
	}
	return quests
}

func seed(coupleID int64, dateKey string) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d|%s", coupleID, dateKey)
	return int64(h.Sum64())
}

func questID(coupleID int64, dateKey string, slot int) string {
	name := fmt.Sprintf("quest|%d|%s|%d", coupleID, dateKey, slot)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}
