package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "zero width characters removed",
			in:   "Reve\u200Bnue gr\u200Cew",
			want: "Revenue grew",
		},
		{
			name: "byte order mark removed",
			in:   "\uFEFFRevenue\uFEFF grew",
			want: "Revenue grew",
		},
		{
			name: "intra line whitespace squashed",
			in:   "Revenue \t  grew  12%",
			want: "Revenue grew 12%",
		},
		{
			name: "carriage returns dropped",
			in:   "line one\r\nline two",
			want: "line one\nline two",
		},
		{
			name: "blank line runs collapsed to two",
			in:   "a\n\n\n\n\nb",
			want: "a\n\nb",
		},
		{
			name: "separator runs collapsed to three",
			in:   "--------\n========\n________",
			want: "---\n===\n___",
		},
		{
			name: "short separator runs untouched",
			in:   "a --- b",
			want: "a --- b",
		},
		{
			name: "ends trimmed",
			in:   "  \n text \n ",
			want: "text",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeText(tt.in))
		})
	}
}

func TestNormalizeTextIdempotent(t *testing.T) {
	inputs := []string{
		"Reve\u200Bnue  grew\n\n\n\n12%  ----------",
		"  plain text  ",
		"a\r\n\r\nb\t\tc",
		"• bullet one\n• bullet two\n\n\n====== end",
	}
	for _, in := range inputs {
		once := NormalizeText(in)
		assert.Equal(t, once, NormalizeText(once), "input %q", in)
	}
}
