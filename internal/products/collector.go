// Package products builds CRM-ready product sets from RosDomofon data.
//
// Two traversals exist over the same population: ByAccountConnections walks
// every account and its connections, ByEntranceServices walks every entrance
// and the services installed on it. Both key a product by the service custom
// name.
package products

import (
	"context"
	"fmt"

	"github.com/BTic-Consultoria/rosdomofon-bitrix24/internal/models"
)

// AccountSource is the API surface the connection traversal needs.
type AccountSource interface {
	GetAccounts(ctx context.Context) ([]models.Account, error)
	GetAccountByPhone(ctx context.Context, phone int64) (*models.Account, error)
	GetAccountConnections(ctx context.Context, accountID int64) ([]models.Connection, error)
}

// EntranceSource is the API surface the entrance traversal needs.
type EntranceSource interface {
	GetEntrances(ctx context.Context, all bool) (*models.EntrancesPage, error)
}

// Source is everything both strategies need.
type Source interface {
	AccountSource
	EntranceSource
}

// Strategy collects a product set.
type Strategy func(ctx context.Context, api Source) (models.Products, error)

// ByAccountConnections resolves every account by its owner's phone and
// collects a product per connection, priced at the connection tariff.
func ByAccountConnections(ctx context.Context, api AccountSource) (models.Products, error) {
	accounts, err := api.GetAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	products := make(models.Products)
	for _, listed := range accounts {
		phone, err := listed.Owner.Phone.Int64()
		if err != nil {
			return nil, fmt.Errorf("account %d: %w", listed.ID, err)
		}

		account, err := api.GetAccountByPhone(ctx, phone)
		if err != nil {
			return nil, fmt.Errorf("account %d: %w", listed.ID, err)
		}

		connections, err := api.GetAccountConnections(ctx, account.ID)
		if err != nil {
			return nil, fmt.Errorf("account %d: %w", account.ID, err)
		}

		for _, connection := range connections {
			products[connection.Service.CustomName] = models.NewProduct(connection.Tariff, connection.Service)
		}
	}

	return products, nil
}

// ByEntranceServices collects a product per service of every entrance,
// priced at the service tariff.
func ByEntranceServices(ctx context.Context, api EntranceSource) (models.Products, error) {
	page, err := api.GetEntrances(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list entrances: %w", err)
	}

	products := make(models.Products)
	for _, entrance := range page.Content {
		for _, service := range entrance.Services {
			products[service.CustomName] = models.NewProduct(service.Tariff, service)
		}
	}

	return products, nil
}

// Connections adapts ByAccountConnections to Strategy.
func Connections(ctx context.Context, api Source) (models.Products, error) {
	return ByAccountConnections(ctx, api)
}

// Entrances adapts ByEntranceServices to Strategy.
func Entrances(ctx context.Context, api Source) (models.Products, error) {
	return ByEntranceServices(ctx, api)
}

// Lookup returns the strategy registered under name.
func Lookup(name string) (Strategy, bool) {
	switch name {
	case "connections", "old":
		return Connections, true
	case "entrances", "new":
		return Entrances, true
	default:
		return nil, false
	}
}
