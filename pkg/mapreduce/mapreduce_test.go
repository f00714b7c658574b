package mapreduce

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dtnitsch/essay-ingest/pkg/analytics"
)

func TestMapReduceTopKeywords(t *testing.T) {
	a := analytics.New(nil)
	counts := Reduce([]map[string]int{
		Map("Startups grow. Startups fail.", a),
		Map("Investors fund startups and founders.", a),
	})

	assert.Equal(t, 3, counts["startups"])
	top := TopKeywords(counts, 2, 3)
	assert.Equal(t, []KeywordCount{{"startups", 3}, {"fail", 1}}, top)
	assert.Len(t, TopKeywords(counts, 0, 3), len(counts))
}
