// Package eval benchmarks the regex detection stage against labeled
// prompts and reports per-label precision and recall.
package eval

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sentinelsec/inspector/detect"
)

// CaseResult records the outcome of one test case.
type CaseResult struct {
	Prompt   string
	Expected []string
	Got      []string
	Pass     bool
}

// LabelMetrics aggregates detection counts for one label.
type LabelMetrics struct {
	TruePositives  int
	FalsePositives int
	FalseNegatives int
}

// Precision is TP / (TP + FP); 1.0 when the label never fired.
func (m LabelMetrics) Precision() float64 {
	if m.TruePositives+m.FalsePositives == 0 {
		return 1.0
	}
	return float64(m.TruePositives) / float64(m.TruePositives+m.FalsePositives)
}

// Recall is TP / (TP + FN); 1.0 when the label never occurred.
func (m LabelMetrics) Recall() float64 {
	if m.TruePositives+m.FalseNegatives == 0 {
		return 1.0
	}
	return float64(m.TruePositives) / float64(m.TruePositives+m.FalseNegatives)
}

// Report is the result of running one dataset.
type Report struct {
	Dataset string
	Cases   []CaseResult
	Labels  map[string]*LabelMetrics
	Passed  int
}

// Run evaluates every case in the dataset with the regex stage.
func Run(ds Dataset) *Report {
	rep := &Report{
		Dataset: ds.Name,
		Labels:  make(map[string]*LabelMetrics),
	}

	for _, tc := range ds.Tests {
		got := labelSet(detect.DetectAll(tc.Prompt))
		want := uniqueLabels(tc.ExpectedLabels)

		cr := CaseResult{
			Prompt:   tc.Prompt,
			Expected: want,
			Got:      got,
			Pass:     equalSets(want, got),
		}
		if cr.Pass {
			rep.Passed++
		}
		rep.Cases = append(rep.Cases, cr)

		wantSet := toSet(want)
		gotSet := toSet(got)
		for label := range wantSet {
			if gotSet[label] {
				rep.metrics(label).TruePositives++
			} else {
				rep.metrics(label).FalseNegatives++
			}
		}
		for label := range gotSet {
			if !wantSet[label] {
				rep.metrics(label).FalsePositives++
			}
		}
	}
	return rep
}

func (r *Report) metrics(label string) *LabelMetrics {
	m, ok := r.Labels[label]
	if !ok {
		m = &LabelMetrics{}
		r.Labels[label] = m
	}
	return m
}

// Accuracy is the fraction of cases whose label set matched exactly.
func (r *Report) Accuracy() float64 {
	if len(r.Cases) == 0 {
		return 0
	}
	return float64(r.Passed) / float64(len(r.Cases))
}

// String renders the report as a plain-text table.
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d/%d cases (%.1f%%)\n",
		r.Dataset, r.Passed, len(r.Cases), r.Accuracy()*100)

	labels := make([]string, 0, len(r.Labels))
	for l := range r.Labels {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	for _, l := range labels {
		m := r.Labels[l]
		fmt.Fprintf(&b, "  %-20s precision=%.2f recall=%.2f (tp=%d fp=%d fn=%d)\n",
			l, m.Precision(), m.Recall(),
			m.TruePositives, m.FalsePositives, m.FalseNegatives)
	}
	for _, c := range r.Cases {
		if !c.Pass {
			fmt.Fprintf(&b, "  FAIL %q: want %v, got %v\n", c.Prompt, c.Expected, c.Got)
		}
	}
	return b.String()
}

func labelSet(spans []detect.Span) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range spans {
		if !seen[s.Label] {
			seen[s.Label] = true
			out = append(out, s.Label)
		}
	}
	sort.Strings(out)
	return out
}

func uniqueLabels(labels []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	sort.Strings(out)
	return out
}

func toSet(labels []string) map[string]bool {
	s := make(map[string]bool, len(labels))
	for _, l := range labels {
		s[l] = true
	}
	return s
}

func equalSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
