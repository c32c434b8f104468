package weather

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()

	assert.Equal(t, 62, c.Len())
	assert.Same(t, c, DefaultCatalog())

	tests := map[string]string{
		"100": "晴",
		"104": "阴",
		"150": "晴",
		"309": "毛毛雨/细雨",
		"318": "大暴雨到特大暴雨",
		"410": "大到暴雪",
		"515": "特强浓雾",
		"900": "热",
		"999": "未知",
	}
	for code, want := range tests {
		assert.Equal(t, want, c.Label(code), "code %s", code)
	}
}

func TestCatalogLabelIsTotal(t *testing.T) {
	c := DefaultCatalog()
	for _, code := range []string{"", "0", "abc", "1000", "100.png", " 100"} {
		assert.Equal(t, UnknownLabel, c.Label(code), "code %q", code)
	}
}

func TestNewCatalog(t *testing.T) {
	c, err := NewCatalog([]byte("codes:\n  \"1\": 甲\n"))
	require.NoError(t, err)
	assert.Equal(t, "甲", c.Label("1"))

	_, err = NewCatalog([]byte("codes: {}\n"))
	assert.Error(t, err)

	_, err = NewCatalog([]byte("codes: [unterminated"))
	assert.Error(t, err)
}
