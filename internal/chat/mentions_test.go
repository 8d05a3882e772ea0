package chat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractMentions(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "no mentions",
			content: "just a plain message",
			want:    nil,
		},
		{
			name:    "single mention",
			content: "hey @alice can you look at this?",
			want:    []string{"alice"},
		},
		{
			name:    "multiple mentions",
			content: "@alice @bob ping",
			want:    []string{"alice", "bob"},
		},
		{
			name:    "duplicate mention counted once",
			content: "@alice and again @alice",
			want:    []string{"alice"},
		},
		{
			name:    "underscore and digits",
			content: "cc @dev_ops2",
			want:    []string{"dev_ops2"},
		},
		{
			name:    "mention stops at punctuation",
			content: "thanks @carol!",
			want:    []string{"carol"},
		},
		{
			name:    "email-like text still matches the word part",
			content: "mail me at foo@example.com",
			want:    []string{"example"},
		},
		{
			name:    "bare at sign",
			content: "meet @ noon",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ExtractMentions(tt.content))
		})
	}
}

func TestMentionMessage(t *testing.T) {
	require.Equal(t, "alice mentioned you in general", MentionMessage("alice", "general"))
}
