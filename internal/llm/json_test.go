package llm

import "testing"

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"fenced json block", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"prose around object", "Here is the result:\n{\"a\":1}\nHope that helps!", `{"a":1}`},
		{"whitespace padding", "  \n {\"a\":1} \n", `{"a":1}`},
		{"no json at all", "cannot comply", ""},
		{"unbalanced braces", "{\"a\":", ""},
	}
	for _, tc := range cases {
		got := ExtractJSON(tc.in)
		if string(got) != tc.want {
			t.Errorf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}
