package remote

import (
	"context"
	"errors"

	"github.com/esteh-pos/stock-console/internal/apperr"
	"github.com/esteh-pos/stock-console/internal/inventory"

	"go.uber.org/zap"
)

const (
	materialsPath         = "/bahan-gudang"
	materialsFallbackPath = "/gudang/bahan"
)

// Products lists the sellable products with their recipes.
func (c *Client) Products(ctx context.Context) ([]inventory.Product, error) {
	body, err := c.get(ctx, "list_products", "/produk")
	if err != nil {
		return nil, err
	}
	dtos, err := decodeList[productDTO]("list_products", body)
	if err != nil {
		return nil, err
	}

	products := make([]inventory.Product, 0, len(dtos))
	for _, d := range dtos {
		products = append(products, d.toDomain())
	}
	return products, nil
}

// Materials lists the material catalog. Older backends only serve it
// under the warehouse prefix, so an HTTP rejection retries there once.
func (c *Client) Materials(ctx context.Context) ([]inventory.Material, error) {
	body, err := c.get(ctx, "list_materials", materialsPath)
	if err != nil {
		var remoteErr *apperr.RemoteError
		if !errors.As(err, &remoteErr) || remoteErr.StatusCode == 0 {
			return nil, err
		}
		c.logger.Info("material catalog not at primary path, trying fallback",
			zap.Int("status", remoteErr.StatusCode))
		body, err = c.get(ctx, "list_materials", materialsFallbackPath)
		if err != nil {
			return nil, err
		}
	}

	dtos, err := decodeList[materialDTO]("list_materials", body)
	if err != nil {
		return nil, err
	}
	materials := make([]inventory.Material, 0, len(dtos))
	for _, d := range dtos {
		materials = append(materials, d.toDomain())
	}
	return materials, nil
}
