package news

// Article is a provider article normalized for voice delivery. Number is the
// 1-based position within its result batch. Missing provider fields are
// normalized to the empty string so downstream formatting stays total.
type Article struct {
	Number      int    `json:"number"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Source      string `json:"source"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
}

// Headline is the trimmed projection used for on-screen display, separate
// from the full voice-read text.
type Headline struct {
	Title       string `json:"title"`
	Source      string `json:"source"`
	PublishedAt string `json:"publishedAt"`
}

// Categories is the fixed category vocabulary, in declaration order.
var Categories = []string{
	"technology",
	"politics",
	"sports",
	"entertainment",
	"business",
	"health",
	"science",
}

// IsCategory reports whether name is one of the fixed categories.
func IsCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}
