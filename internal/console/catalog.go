package console

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/kdudkov/tgsubs/pkg/model"
)

type CatalogItem struct {
	Product      *model.ProductDTO
	Subscribable bool
}

// Catalog is the public product list.
type Catalog struct {
	api    Backend
	logger *zap.SugaredLogger

	mx     sync.Mutex
	phase  Phase
	errMsg string
	items  []CatalogItem
}

func NewCatalog(api Backend, logger *zap.SugaredLogger) *Catalog {
	return &Catalog{api: api, logger: logger.Named("catalog")}
}

func (c *Catalog) Load(ctx context.Context) error {
	c.mx.Lock()
	c.phase = PhaseLoading
	c.mx.Unlock()

	products, err := c.api.GetProducts(ctx)

	c.mx.Lock()
	defer c.mx.Unlock()

	if err != nil {
		c.logger.Errorf("load catalog: %s", err.Error())
		c.phase = PhaseError
		c.errMsg = msgLoadFailed

		return fmt.Errorf("load catalog: %w", err)
	}

	c.items = make([]CatalogItem, 0, len(products))

	for _, p := range products {
		if p == nil {
			continue
		}

		c.items = append(c.items, CatalogItem{Product: p, Subscribable: p.Mapped()})
	}

	c.phase = PhaseLoaded
	c.errMsg = ""

	return nil
}

func (c *Catalog) Items() []CatalogItem {
	c.mx.Lock()
	defer c.mx.Unlock()

	return c.items
}

func (c *Catalog) State() (Phase, string) {
	c.mx.Lock()
	defer c.mx.Unlock()

	return c.phase, c.errMsg
}
