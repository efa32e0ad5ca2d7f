package ocr

import (
	"context"
	"testing"
)

func TestDisabled(t *testing.T) {
	out := Disabled{}.Run(context.Background(), "whatever.png")
	if out.Used || out.Text != "" || len(out.Words) != 0 {
		t.Errorf("Disabled produced output: %+v", out)
	}
	if out.Reason != "ocr_disabled" {
		t.Errorf("reason = %q, want ocr_disabled", out.Reason)
	}
}

const sampleTSV = "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
	"1\t1\t0\t0\t0\t0\t0\t0\t640\t480\t-1\t\n" +
	"5\t1\t1\t1\t1\t1\t10\t20\t80\t18\t96.5\tcall\n" +
	"5\t1\t1\t1\t1\t2\t100\t20\t160\t18\t92.1\t010-1234-5678\n" +
	"5\t1\t1\t1\t2\t1\t10\t60\t40\t18\t88.0\tnow\n" +
	"5\t1\t1\t1\t2\t2\t60\t60\t40\t18\t-1\tghost\n" +
	"5\t1\t1\t1\t2\t3\t110\t60\t40\t18\t90.0\t \n"

func TestParseTSV(t *testing.T) {
	words := parseTSV(sampleTSV)
	if len(words) != 3 {
		t.Fatalf("words = %+v, want 3", words)
	}
	if words[0].Text != "call" || words[0].X != 10 || words[0].Y != 20 || words[0].W != 80 || words[0].H != 18 {
		t.Errorf("first word = %+v", words[0])
	}
	if words[1].Text != "010-1234-5678" {
		t.Errorf("second word = %+v", words[1])
	}
	// negative confidence and blank text rows must be dropped
	for _, w := range words {
		if w.Text == "ghost" || w.Text == "" {
			t.Errorf("kept filtered row: %+v", w)
		}
	}
}

func TestJoinWords(t *testing.T) {
	words := parseTSV(sampleTSV)
	got := joinWords(words)
	want := "call 010-1234-5678\nnow"
	if got != want {
		t.Errorf("joinWords = %q, want %q", got, want)
	}
}

func TestParseTSVEmpty(t *testing.T) {
	if words := parseTSV(""); len(words) != 0 {
		t.Errorf("parseTSV(\"\") = %+v", words)
	}
	if got := joinWords(nil); got != "" {
		t.Errorf("joinWords(nil) = %q", got)
	}
}
