package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderedMetrics_PreservesInsertionOrder(t *testing.T) {
	var m OrderedMetrics
	m.Set("湿度", "45%")
	m.Set("风速", "3级")
	m.Set("降水量", "0")

	assert.Equal(t, []Metric{
		{Label: "湿度", Value: "45%"},
		{Label: "风速", Value: "3级"},
		{Label: "降水量", Value: "0"},
	}, m.All())
	assert.Equal(t, 3, m.Len())
}

func TestOrderedMetrics_OverwriteKeepsPosition(t *testing.T) {
	var m OrderedMetrics
	m.Set("湿度", "45%")
	m.Set("风速", "3级")
	m.Set("湿度", "50%")

	all := m.All()
	assert.Len(t, all, 2)
	assert.Equal(t, Metric{Label: "湿度", Value: "50%"}, all[0])

	v, ok := m.Get("湿度")
	assert.True(t, ok)
	assert.Equal(t, "50%", v)

	_, ok = m.Get("气压")
	assert.False(t, ok)
}

func TestOrderedMetrics_AllReturnsCopy(t *testing.T) {
	var m OrderedMetrics
	m.Set("湿度", "45%")

	all := m.All()
	all[0].Value = "changed"

	v, _ := m.Get("湿度")
	assert.Equal(t, "45%", v)
}
