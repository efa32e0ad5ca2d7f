package mask

import (
	"testing"

	"github.com/sentinelsec/inspector/detect"
)

func TestByEntities(t *testing.T) {
	tests := []struct {
		name string
		text string
		ents []detect.Span
		want string
	}{
		{
			name: "single span",
			text: "call 010-1234-5678 now",
			ents: []detect.Span{{Label: "PHONE", Value: "010-1234-5678", Begin: 5, End: 18}},
			want: "call PHONE now",
		},
		{
			name: "two spans right to left",
			text: "kim at a@b.com",
			ents: []detect.Span{
				{Label: "NAME", Value: "kim", Begin: 0, End: 3},
				{Label: "EMAIL", Value: "a@b.com", Begin: 7, End: 14},
			},
			want: "NAME at EMAIL",
		},
		{
			name: "korean text rune offsets",
			text: "내 번호 010-1234-5678 이야",
			ents: []detect.Span{{Label: "PHONE", Value: "010-1234-5678", Begin: 5, End: 18}},
			want: "내 번호 PHONE 이야",
		},
		{
			name: "invalid offsets fall back to value",
			text: "mail a@b.com twice a@b.com",
			ents: []detect.Span{
				{Label: "EMAIL", Value: "a@b.com", Begin: -1, End: -1},
				{Label: "EMAIL", Value: "a@b.com", Begin: 999, End: 1002},
			},
			want: "mail EMAIL twice EMAIL",
		},
		{
			name: "offset value mismatch uses search",
			text: "id 860101-2345678 here",
			ents: []detect.Span{{Label: "RESIDENT_ID", Value: "860101-2345678", Begin: 0, End: 14}},
			want: "id RESIDENT_ID here",
		},
		{
			name: "value absent is skipped",
			text: "nothing sensitive",
			ents: []detect.Span{{Label: "NAME", Value: "kim", Begin: -1, End: -1}},
			want: "nothing sensitive",
		},
		{
			name: "overlapping entities keep longest",
			text: "num 4111-1111-1111-1111 end",
			ents: []detect.Span{
				{Label: "CARD_NUMBER", Value: "4111-1111-1111-1111", Begin: 4, End: 23},
				{Label: "BANK_ACCOUNT", Value: "4111-1111-1111", Begin: 4, End: 18},
			},
			want: "num CARD_NUMBER end",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ByEntities(tt.text, tt.ents); got != tt.want {
				t.Errorf("ByEntities = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWithParens(t *testing.T) {
	text := "call 010-1234-5678 now"
	ents := []detect.Span{{Label: "PHONE", Value: "010-1234-5678", Begin: 5, End: 18}}
	if got, want := WithParens(text, ents), "call (PHONE) now"; got != want {
		t.Errorf("WithParens = %q, want %q", got, want)
	}
}

func TestMaskOriginalUnchanged(t *testing.T) {
	text := "call 010-1234-5678 now"
	ents := []detect.Span{{Label: "PHONE", Value: "010-1234-5678", Begin: 5, End: 18}}
	_ = ByEntities(text, ents)
	if text != "call 010-1234-5678 now" {
		t.Errorf("input mutated: %q", text)
	}
}
