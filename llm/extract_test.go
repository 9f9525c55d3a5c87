package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "BareObject",
			text: `{"a": 1}`,
			want: `{"a": 1}`,
		},
		{
			name: "SurroundedByProse",
			text: `Here is my answer: {"a": 1} hope that helps!`,
			want: `{"a": 1}`,
		},
		{
			name: "MarkdownFence",
			text: "```json\n{\"a\": 1}\n```",
			want: `{"a": 1}`,
		},
		{
			name: "NestedObjects",
			text: `{"outer": {"inner": [1, 2]}} trailing`,
			want: `{"outer": {"inner": [1, 2]}}`,
		},
		{
			name: "BracesInsideStrings",
			text: `{"text": "a } inside \" and { too"} rest`,
			want: `{"text": "a } inside \" and { too"}`,
		},
		{
			name: "FirstOfTwoObjects",
			text: `{"first": true} {"second": true}`,
			want: `{"first": true}`,
		},
		{
			name: "Unbalanced",
			text: `{"a": {"b": 1}`,
			want: "",
		},
		{
			name: "NoObject",
			text: "no json here",
			want: "",
		},
		{
			name: "Empty",
			text: "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.text))
		})
	}
}
