package tagging

import (
	"fmt"
	"strings"
)

// DescribePrompt is sent with image bytes to obtain a text description.
const DescribePrompt = "Describe this image in detail. Mention the main subjects, setting, colors, mood and any visible text."

const tagPromptTemplate = `Given the existing tags: %s.
List at least 5 distinct single-word tags for the content below, separated by commas. Use existing tags if possible; create new ones only if necessary. Avoid connection words, numbers, or ranks.
Answer in the form "Tags: tag1, tag2, tag3".

Content:
%s`

// BuildPrompt embeds the vocabulary hint and the extracted text in the
// chat-extract prompt.
func BuildPrompt(vocabulary []string, content string) string {
	hint := strings.Join(vocabulary, ", ")
	if hint == "" {
		hint = "none"
	}
	return fmt.Sprintf(tagPromptTemplate, hint, content)
}
