package quest

import "github.com/mkendall/tandem/internal/model"

// CatalogEntry is one pluggable quest type the generator can draw from.
// Shared entries are assigned to both partners; the rest go to one of them.
type CatalogEntry struct {
	Kind   model.QuestKind
	Titles []string
	Reward int
	Shared bool
}

// DefaultCatalog returns the built-in quest types.
func DefaultCatalog() []CatalogEntry {
	return []CatalogEntry{
		{
			Kind: model.KindConversation,
			Titles: []string{
				"Ask your partner about the best part of their day",
				"Share a childhood memory neither of you has told before",
				"Plan your next date night together",
			},
			Reward: 10,
			Shared: true,
		},
		{
			Kind: model.KindActivity,
			Titles: []string{
				"Cook a meal together tonight",
				"Take a 15-minute walk together",
				"Try something new together for 20 minutes",
			},
			Reward: 20,
			Shared: true,
		},
		{
			Kind: model.KindMemory,
			Titles: []string{
				"Send your partner a photo from a trip you took together",
				"Recreate the photo from your first date",
			},
			Reward: 15,
			Shared: false,
		},
		{
			Kind: model.KindQuiz,
			Titles: []string{
				"Play a round of the couples quiz",
				"Play one game of You or Me",
			},
			Reward: 15,
			Shared: true,
		},
		{
			Kind: model.KindSteps,
			Titles: []string{
				"Hit your shared step goal today",
			},
			Reward: 25,
			Shared: true,
		},
		{
			Kind: model.KindSurprise,
			Titles: []string{
				"Leave a surprise note for your partner",
				"Do one of your partner's chores without being asked",
			},
			Reward: 20,
			Shared: false,
		},
	}
}
