package products

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BTic-Consultoria/rosdomofon-bitrix24/internal/models"
)

type fakeSource struct {
	accounts    []models.Account
	byPhone     map[int64]models.Account
	connections map[int64][]models.Connection
	entrances   *models.EntrancesPage

	accountsErr  error
	phoneErr     error
	entranceErr  error
	phoneLookups []int64
}

func (f *fakeSource) GetAccounts(ctx context.Context) ([]models.Account, error) {
	return f.accounts, f.accountsErr
}

func (f *fakeSource) GetAccountByPhone(ctx context.Context, phone int64) (*models.Account, error) {
	f.phoneLookups = append(f.phoneLookups, phone)
	if f.phoneErr != nil {
		return nil, f.phoneErr
	}
	account, ok := f.byPhone[phone]
	if !ok {
		return nil, errors.New("not found")
	}
	return &account, nil
}

func (f *fakeSource) GetAccountConnections(ctx context.Context, accountID int64) ([]models.Connection, error) {
	return f.connections[accountID], nil
}

func (f *fakeSource) GetEntrances(ctx context.Context, all bool) (*models.EntrancesPage, error) {
	if !all {
		return nil, errors.New("expected all=true")
	}
	return f.entrances, f.entranceErr
}

var (
	lenina = models.Service{ID: 9, Name: "Lenina 5", CustomName: "DomofonX", Tariff: 120}
	mira   = models.Service{ID: 11, Name: "Mira 12", CustomName: "DomofonY", Tariff: 90}
)

func populatedSource() *fakeSource {
	return &fakeSource{
		accounts: []models.Account{
			{ID: 1, Owner: models.Owner{Phone: "79000000001"}},
			{ID: 2, Owner: models.Owner{Phone: "+79000000002"}},
		},
		byPhone: map[int64]models.Account{
			79000000001: {ID: 101},
			79000000002: {ID: 102},
		},
		connections: map[int64][]models.Connection{
			101: {{ID: 1, Tariff: 120, Service: lenina}},
			102: {{ID: 2, Tariff: 90, Service: mira}, {ID: 3, Tariff: 120, Service: lenina}},
		},
		entrances: &models.EntrancesPage{Content: []models.Entrance{
			{ID: 1, Services: []models.Service{lenina}},
			{ID: 2, Services: []models.Service{mira, lenina}},
		}},
	}
}

func TestByAccountConnections(t *testing.T) {
	source := populatedSource()

	products, err := ByAccountConnections(context.Background(), source)
	require.NoError(t, err)

	assert.Equal(t, models.Products{
		"DomofonX": {Price: 120, CurrencyID: "RUB", Address: "Lenina 5", ServiceID: 9},
		"DomofonY": {Price: 90, CurrencyID: "RUB", Address: "Mira 12", ServiceID: 11},
	}, products)
	assert.Equal(t, []int64{79000000001, 79000000002}, source.phoneLookups)
}

func TestByAccountConnectionsUsesConnectionTariff(t *testing.T) {
	source := populatedSource()
	source.connections[102] = []models.Connection{{ID: 2, Tariff: 75, Service: mira}}

	products, err := ByAccountConnections(context.Background(), source)
	require.NoError(t, err)
	assert.Equal(t, float64(75), products["DomofonY"].Price)
}

func TestByEntranceServices(t *testing.T) {
	products, err := ByEntranceServices(context.Background(), populatedSource())
	require.NoError(t, err)

	assert.Equal(t, models.Products{
		"DomofonX": {Price: 120, CurrencyID: "RUB", Address: "Lenina 5", ServiceID: 9},
		"DomofonY": {Price: 90, CurrencyID: "RUB", Address: "Mira 12", ServiceID: 11},
	}, products)
}

func TestStrategiesAgreeOnConsistentData(t *testing.T) {
	source := populatedSource()

	old, err := Connections(context.Background(), source)
	require.NoError(t, err)
	updated, err := Entrances(context.Background(), source)
	require.NoError(t, err)

	assert.True(t, old.Equal(updated))
}

func TestStrategyErrorsPropagate(t *testing.T) {
	t.Run("accounts", func(t *testing.T) {
		source := populatedSource()
		source.accountsErr = errors.New("network down")
		_, err := ByAccountConnections(context.Background(), source)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "network down")
	})

	t.Run("phone lookup aborts the run", func(t *testing.T) {
		source := populatedSource()
		source.phoneErr = errors.New("timeout")
		_, err := ByAccountConnections(context.Background(), source)
		require.Error(t, err)
		assert.Len(t, source.phoneLookups, 1)
	})

	t.Run("non numeric phone", func(t *testing.T) {
		source := populatedSource()
		source.accounts[0].Owner.Phone = "unknown"
		_, err := ByAccountConnections(context.Background(), source)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not numeric")
		assert.Empty(t, source.phoneLookups)
	})

	t.Run("entrances", func(t *testing.T) {
		source := populatedSource()
		source.entranceErr = errors.New("bad gateway")
		_, err := ByEntranceServices(context.Background(), source)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad gateway")
	})
}

func TestLookup(t *testing.T) {
	for _, name := range []string{"connections", "old", "entrances", "new"} {
		strategy, ok := Lookup(name)
		assert.True(t, ok, name)
		assert.NotNil(t, strategy, name)
	}

	_, ok := Lookup("bitrix")
	assert.False(t, ok)
}
