package news

import (
	"fmt"
	"strings"
)

const descriptionWordLimit = 25

// FormatForVoice renders a batch of articles as text suitable for speech
// synthesis. The label names the category or search context. Zero articles
// produce a single apology sentence with no header.
func FormatForVoice(articles []Article, label string) string {
	if len(articles) == 0 {
		return fmt.Sprintf("Sorry, I couldn't fetch any news for %s at the moment.", label)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Here are the top %d %s news updates:\n\n", len(articles), label)

	for _, article := range articles {
		fmt.Fprintf(&sb, "Headline %d: %s. ", article.Number, article.Title)
		if article.Description != "" && article.Description != article.Title {
			sb.WriteString(truncateWords(article.Description, descriptionWordLimit))
			sb.WriteString(" ")
		}
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// HeadlinesOnly projects articles to the trimmed display shape.
func HeadlinesOnly(articles []Article) []Headline {
	headlines := make([]Headline, 0, len(articles))
	for _, a := range articles {
		headlines = append(headlines, Headline{
			Title:       a.Title,
			Source:      a.Source,
			PublishedAt: a.PublishedAt,
		})
	}
	return headlines
}

func truncateWords(text string, limit int) string {
	words := strings.Fields(text)
	if len(words) <= limit {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:limit], " ") + "..."
}
