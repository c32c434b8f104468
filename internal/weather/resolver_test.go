package weather

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestResolver_ExplicitLocationWins(t *testing.T) {
	locator := new(mockLocator)
	r := NewResolver(locator, nil)

	assert.Equal(t, "杭州", r.Resolve(context.Background(), "杭州", "1.2.3.4", "北京"))
	assert.Equal(t, " 杭州 ", r.Resolve(context.Background(), " 杭州 ", "", "北京"))
	assert.Equal(t, "  ", r.Resolve(context.Background(), "  ", "1.2.3.4", "北京"))
	locator.AssertNotCalled(t, "LocateCity", mock.Anything, mock.Anything)
}

func TestResolver_UsesAddressCity(t *testing.T) {
	locator := new(mockLocator)
	locator.On("LocateCity", mock.Anything, "1.2.3.4").Return("广州", nil).Once()

	got := NewResolver(locator, nil).Resolve(context.Background(), "", "1.2.3.4", "北京")
	assert.Equal(t, "广州", got)
	locator.AssertExpectations(t)
}

func TestResolver_FallsBackToDefault(t *testing.T) {
	tests := []struct {
		name string
		city string
		err  error
	}{
		{"locator error", "", errors.New("timeout")},
		{"empty city", "", nil},
		{"blank city", "  ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			locator := new(mockLocator)
			locator.On("LocateCity", mock.Anything, "1.2.3.4").Return(tt.city, tt.err).Once()

			got := NewResolver(locator, nil).Resolve(context.Background(), "", "1.2.3.4", "北京")
			assert.Equal(t, "北京", got)
			locator.AssertExpectations(t)
		})
	}
}

func TestResolver_NoAddressSkipsLocator(t *testing.T) {
	locator := new(mockLocator)

	got := NewResolver(locator, nil).Resolve(context.Background(), "", "", "北京")
	assert.Equal(t, "北京", got)
	locator.AssertNotCalled(t, "LocateCity", mock.Anything, mock.Anything)
}

func TestResolver_NilLocator(t *testing.T) {
	assert.Equal(t, "北京", NewResolver(nil, nil).Resolve(context.Background(), "", "1.2.3.4", "北京"))
}
