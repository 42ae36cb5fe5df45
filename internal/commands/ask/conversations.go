package ask

import (
	"fmt"
	"regexp"

	"github.com/muratoffalex/emotebot/internal/ai"
	"github.com/muratoffalex/emotebot/internal/fetcher"
	"github.com/muratoffalex/emotebot/internal/service"
)

// OpenAI names must match ^[a-zA-Z0-9_-]{1,64}$.
var nameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// buildMessages turns the channel history into chat messages, adds the
// fetched pages as context and appends the prompt as the final user message.
func buildMessages(turns []service.Turn, pages []fetcher.Response, authorName, prompt string) []ai.Message {
	messages := make([]ai.Message, 0, len(turns)+len(pages)+1)
	for _, turn := range turns {
		if turn.FromBot {
			messages = append(messages, ai.Message{Role: ai.RoleAssistant, Content: turn.Content})
			continue
		}
		messages = append(messages, ai.Message{
			Role:    ai.RoleUser,
			Content: turn.Content,
			Name:    participantName(turn.AuthorName),
		})
	}
	for _, page := range pages {
		messages = append(messages, ai.Message{Role: ai.RoleSystem, Content: pageContext(page)})
	}
	return append(messages, ai.Message{
		Role:    ai.RoleUser,
		Content: prompt,
		Name:    participantName(authorName),
	})
}

func pageContext(page fetcher.Response) string {
	header := "Content of " + page.URL
	if page.Title != "" {
		header += fmt.Sprintf(" (%s)", page.Title)
	}
	if page.Truncated {
		header += " [truncated]"
	}
	return header + ":\n" + page.Text
}

func participantName(name string) string {
	name = nameSanitizer.ReplaceAllString(name, "_")
	if len(name) > 64 {
		name = name[:64]
	}
	return name
}
