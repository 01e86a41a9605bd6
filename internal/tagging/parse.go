package tagging

import "strings"

const preambleSeparator = ": "

// Parse extracts the tag set from a chat-extract completion such as
// "Here are the tags: Sales, Growth, Finance-2024". Text before the first ": "
// is discarded; a response without a preamble is parsed whole. The result is
// normalized, has no empty or repeated entries, and keeps first-seen order.
func Parse(response string) []string {
	body := response
	if _, after, found := strings.Cut(response, preambleSeparator); found {
		body = after
	}

	seen := make(map[string]struct{})
	tags := make([]string, 0)
	for _, candidate := range strings.Split(body, ",") {
		tag := Normalize(candidate)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}
