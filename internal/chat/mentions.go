package chat

import (
	"fmt"
	"regexp"
)

var mentionRegex = regexp.MustCompile(`@(\w+)`)

// ExtractMentions returns the usernames mentioned as @username in a message,
// deduplicated, in order of first appearance.
func ExtractMentions(content string) []string {
	matches := mentionRegex.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	var usernames []string
	for _, m := range matches {
		name := m[1]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		usernames = append(usernames, name)
	}
	return usernames
}

// MentionMessage is the notification text sent to a mentioned user.
func MentionMessage(sender, room string) string {
	return fmt.Sprintf("%s mentioned you in %s", sender, room)
}
