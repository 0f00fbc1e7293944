package daily

// Categories with built-in content.
const (
	CategoryAffirmation = "affirmation"
	CategoryQuote       = "quote"
)

// Affirmations are the daily bloom notes.
var Affirmations = []string{
	"You deserve to feel peace, even when life is loud.",
	"Your healing journey is valid, no matter how slow it feels.",
	"Every breath you take is an act of courage.",
	"You are worthy of love, especially from yourself.",
	"Small steps forward are still steps forward.",
	"Your feelings are temporary visitors, not permanent residents.",
	"You have survived 100% of your difficult days so far.",
	"Growth happens in the quiet moments too.",
	"You are allowed to rest while you heal.",
	"Your story isn't over yet, and that's beautiful.",
	"You matter more than you know.",
	"Healing isn't linear, and that's perfectly okay.",
	"You are stronger than the storm you're weathering.",
	"Tomorrow holds possibilities you can't see today.",
	"You are enough, exactly as you are right now.",
}

// Quotes are the daily inspiration lines shown with insights.
var Quotes = []string{
	"Every small step forward is progress worth celebrating.",
	"Your mental health journey is unique and valuable.",
	"Consistency in self-care creates lasting positive change.",
	"You're building resilience one day at a time.",
	"Growth happens in the quiet moments of self-reflection.",
}

// Builtin returns the content list for a built-in category.
func Builtin(category string) ([]string, bool) {
	switch category {
	case CategoryAffirmation:
		return Affirmations, true
	case CategoryQuote:
		return Quotes, true
	}
	return nil, false
}
