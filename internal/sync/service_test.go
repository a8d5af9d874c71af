package sync

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BTic-Consultoria/rosdomofon-bitrix24/internal/models"
)

type stubAPI struct {
	connections []models.Connection
	services    []models.Service
	entranceErr error
}

func (s *stubAPI) GetAccounts(ctx context.Context) ([]models.Account, error) {
	return []models.Account{{ID: 1, Owner: models.Owner{Phone: "79000000001"}}}, nil
}

func (s *stubAPI) GetAccountByPhone(ctx context.Context, phone int64) (*models.Account, error) {
	return &models.Account{ID: 1}, nil
}

func (s *stubAPI) GetAccountConnections(ctx context.Context, accountID int64) ([]models.Connection, error) {
	return s.connections, nil
}

func (s *stubAPI) GetEntrances(ctx context.Context, all bool) (*models.EntrancesPage, error) {
	if s.entranceErr != nil {
		return nil, s.entranceErr
	}
	return &models.EntrancesPage{Content: []models.Entrance{{ID: 1, Services: s.services}}}, nil
}

type memoryJournal struct {
	saved map[int64]time.Time
	err   error
}

func (m *memoryJournal) Exists(ctx context.Context, signupID int64) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.saved[signupID]
	return ok, nil
}

func (m *memoryJournal) Save(ctx context.Context, signup *models.SignUpEvent, receivedAt time.Time) error {
	m.saved[signup.ID] = receivedAt
	return nil
}

func newTestService(out io.Writer, opts ...Option) *Service {
	s := NewService(log.New(io.Discard, "", 0), out, opts...)
	clock := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return s
}

var domofon = models.Service{ID: 9, Name: "Lenina 5", CustomName: "DomofonX", Tariff: 100}

func TestCompareStrategiesSame(t *testing.T) {
	api := &stubAPI{
		connections: []models.Connection{{ID: 1, Tariff: 100, Service: domofon}},
		services:    []models.Service{domofon},
	}

	result, err := newTestService(io.Discard).CompareStrategies(context.Background(), api)
	require.NoError(t, err)

	assert.True(t, result.Report.Same)
	assert.Equal(t, 1, result.OldCount)
	assert.Equal(t, 1, result.NewCount)
	assert.Equal(t, "1s", result.Duration)
}

func TestCompareStrategiesDifferent(t *testing.T) {
	api := &stubAPI{
		connections: []models.Connection{{ID: 1, Tariff: 80, Service: domofon}},
		services:    []models.Service{domofon},
	}

	result, err := newTestService(io.Discard).CompareStrategies(context.Background(), api)
	require.NoError(t, err)

	assert.False(t, result.Report.Same)
	require.Len(t, result.Report.Differences, 2)
	assert.Equal(t, float64(80), result.Report.Differences[0].Old.Price)
	assert.Equal(t, float64(100), result.Report.Differences[0].New.Price)
}

func TestCompareStrategiesAbortsOnError(t *testing.T) {
	api := &stubAPI{entranceErr: errors.New("gateway timeout")}

	_, err := newTestService(io.Discard).CompareStrategies(context.Background(), api)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "new algorithm failed")
	assert.Contains(t, err.Error(), "gateway timeout")
}

func sampleSignup() models.SignUpEvent {
	flat := 65
	return models.SignUpEvent{
		ID:      1526294,
		Abonent: models.SignUpAbonent{ID: 11, Phone: "79308312222"},
		Address: models.SignUpAddress{
			Country: models.SignUpCountry{Name: "Russia", ShortName: "RU"},
			City:    "Cheboksary",
			Street:  models.SignUpStreet{Name: "Filippa Lukina"},
			House:   models.SignUpHouse{Number: "5"},
			Flat:    &flat,
		},
		Application: models.SignUpApplication{Name: "RD", Provider: "rosdomofon"},
		Virtual:     true,
		Status:      "unprocessed",
	}
}

func TestHandleSignupPrintsSummary(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, newTestService(&out).HandleSignup(context.Background(), sampleSignup()))

	printed := out.String()
	assert.Contains(t, printed, "ID: 11\n")
	assert.Contains(t, printed, "Phone: 79308312222\n")
	assert.Contains(t, printed, "Country: Russia (RU)\n")
	assert.Contains(t, printed, "Address: Cheboksary, st. Filippa Lukina, h. 5\n")
	assert.Contains(t, printed, "Application: RD (rosdomofon)\n")
	assert.Contains(t, printed, "Virtual handset: true\n")
	assert.Contains(t, printed, "Offer signed: false\n")
	assert.Contains(t, printed, "Contract number: not specified\n")
	assert.Contains(t, printed, "Status: unprocessed\n")
}

func TestHandleSignupSkipsJournalled(t *testing.T) {
	journal := &memoryJournal{saved: map[int64]time.Time{}}
	var out bytes.Buffer
	service := newTestService(&out, WithJournal(journal))

	require.NoError(t, service.HandleSignup(context.Background(), sampleSignup()))
	require.Contains(t, journal.saved, int64(1526294))
	printedOnce := out.Len()

	require.NoError(t, service.HandleSignup(context.Background(), sampleSignup()))
	assert.Equal(t, printedOnce, out.Len(), "duplicate delivery is not printed again")
	assert.Len(t, journal.saved, 1)
}

func TestHandleSignupJournalError(t *testing.T) {
	journal := &memoryJournal{saved: map[int64]time.Time{}, err: errors.New("db down")}

	err := newTestService(io.Discard, WithJournal(journal)).HandleSignup(context.Background(), sampleSignup())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestWriteProducts(t *testing.T) {
	var out bytes.Buffer
	set := models.Products{
		"B": {Price: 2, CurrencyID: "RUB", Address: "b", ServiceID: 2},
		"A": {Price: 1.5, CurrencyID: "RUB", Address: "a", ServiceID: 1},
	}

	require.NoError(t, WriteProducts(&out, set))
	assert.Equal(t, "{\n"+
		`  "A": {PRICE: 1.5, CURRENCY_ID: "RUB", ADDRESS: "a", ID_SERVICE_ROSDOMOFON: 1},`+"\n"+
		`  "B": {PRICE: 2, CURRENCY_ID: "RUB", ADDRESS: "b", ID_SERVICE_ROSDOMOFON: 2},`+"\n"+
		"}\n", out.String())
}
