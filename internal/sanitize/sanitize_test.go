package sanitize

import "testing"

func TestQuestionText(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "markdown bold",
			input:    "**Tell me** about your **last project**",
			expected: "Tell me about your last project",
		},
		{
			name:     "markdown italic and underscores",
			input:    "_Describe_ a __difficult__ *bug* you fixed",
			expected: "Describe a difficult bug you fixed",
		},
		{
			name:     "question label",
			input:    "Q1: How do you design for scale?",
			expected: "How do you design for scale?",
		},
		{
			name:     "numeric label",
			input:    "3. Walk me through your CI pipeline.",
			expected: "Walk me through your CI pipeline.",
		},
		{
			name:     "surrounding quotes",
			input:    `"What is your debugging process?"`,
			expected: "What is your debugging process?",
		},
		{
			name:     "trailing parenthetical",
			input:    "Explain eventual consistency. (This assesses distributed systems knowledge)",
			expected: "Explain eventual consistency.",
		},
		{
			name:     "whitespace collapse",
			input:    "How   would you\n\nshard   a database?",
			expected: "How would you shard a database?",
		},
		{
			name:     "everything at once",
			input:    "Q2: **How** do you _monitor_  production?   (probing ops maturity)",
			expected: "How do you monitor production?",
		},
		{
			name:     "empty",
			input:    "",
			expected: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := QuestionText(tc.input); got != tc.expected {
				t.Fatalf("QuestionText(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestQuestionTextKeepsInnerParenthetical(t *testing.T) {
	input := "How would you scale a service (say, an API gateway) to 1M users?"
	if got := QuestionText(input); got != input {
		t.Fatalf("inner parenthetical must survive, got %q", got)
	}
}
