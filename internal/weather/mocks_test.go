package weather

import (
	"context"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/mock"

	"weatherplugin/internal/types"
)

type mockLocator struct {
	mock.Mock
}

func (m *mockLocator) LocateCity(ctx context.Context, addr string) (string, error) {
	args := m.Called(ctx, addr)
	return args.String(0), args.Error(1)
}

type mockDirectory struct {
	mock.Mock
}

func (m *mockDirectory) LookupCity(ctx context.Context, location string, apiKey types.SecretString) (*types.CityRecord, error) {
	args := m.Called(ctx, location, apiKey)
	city, _ := args.Get(0).(*types.CityRecord)
	return city, args.Error(1)
}

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) FetchPage(ctx context.Context, link string) (*goquery.Document, error) {
	args := m.Called(ctx, link)
	doc, _ := args.Get(0).(*goquery.Document)
	return doc, args.Error(1)
}

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) RecordOutcome(ctx context.Context, action types.Action, reason string) {
	m.Called(ctx, action, reason)
}
