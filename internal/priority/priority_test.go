package priority

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yourorg/lof-premium/internal/config"
	"github.com/yourorg/lof-premium/internal/model"
)

func TestReorderFrontLoadsPriorityCategories(t *testing.T) {
	instruments := []model.Instrument{
		{Code: "160119", Name: "南方中证500", MarketPrice: 1.5},
		{Code: "161116", Name: "易方达黄金主题", MarketPrice: 2.1},
		{Code: "163402", Name: "兴全趋势投资", MarketPrice: 0.9},
		{Code: "162411", Name: "华宝标普石油指数", MarketPrice: 0.6},
	}

	ordered, priorityCount := Reorder(instruments, config.DefaultPolicy().PriorityKeywords)

	assert.Equal(t, 2, priorityCount)
	// Priority bucket first, original relative order preserved in both buckets
	assert.Equal(t, []string{"161116", "162411", "160119", "163402"}, codes(ordered))
}

func TestReorderNoMatches(t *testing.T) {
	instruments := []model.Instrument{
		{Code: "160119", Name: "南方中证500"},
		{Code: "163402", Name: "兴全趋势投资"},
	}

	ordered, priorityCount := Reorder(instruments, config.DefaultPolicy().PriorityKeywords)

	assert.Equal(t, 0, priorityCount)
	assert.Equal(t, []string{"160119", "163402"}, codes(ordered))
}

func TestReorderAllMatch(t *testing.T) {
	instruments := []model.Instrument{
		{Code: "161116", Name: "易方达黄金主题"},
		{Code: "160723", Name: "嘉实原油"},
	}

	ordered, priorityCount := Reorder(instruments, config.DefaultPolicy().PriorityKeywords)

	assert.Equal(t, 2, priorityCount)
	assert.Equal(t, []string{"161116", "160723"}, codes(ordered))
}

func TestReorderIsDeterministic(t *testing.T) {
	instruments := []model.Instrument{
		{Code: "1", Name: "QDII美股基金"},
		{Code: "2", Name: "普通混合"},
		{Code: "3", Name: "港股通精选"},
		{Code: "4", Name: "另一只混合"},
	}
	keywords := []string{"QDII", "港股"}

	first, _ := Reorder(instruments, keywords)
	second, _ := Reorder(instruments, keywords)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"1", "3", "2", "4"}, codes(first))
}

func TestReorderEmptyKeywords(t *testing.T) {
	instruments := []model.Instrument{{Code: "1", Name: "黄金"}}
	ordered, priorityCount := Reorder(instruments, nil)
	assert.Equal(t, 0, priorityCount)
	assert.Len(t, ordered, 1)
}

func codes(instruments []model.Instrument) []string {
	out := make([]string, len(instruments))
	for i, inst := range instruments {
		out[i] = inst.Code
	}
	return out
}
