package reporting

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrintRendersPerRequestAndTotalsTables(t *testing.T) {
	summary := Summary{
		Requests: []RequestSummary{
			{Name: "login", TotalHits: 10, HitsPerSec: 5, MinMS: 1, AvgMS: 2, MaxMS: 9, P90MS: 5, P95MS: 6, P99MS: 8, Errors: 1, ErrorRate: 10},
		},
		ExecutionSeconds: 2,
		TotalHits:        10,
		TotalHitsPerSec:  5,
		TotalErrors:      1,
		ErrorRate:        10,
	}

	var buf bytes.Buffer
	Print(&buf, summary)
	out := buf.String()

	for _, want := range []string{"REQUEST", "login", "TOTAL EXECUTION TIME", "10.00%"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q, got:\n%s", want, out)
		}
	}
}
