// Package memory implements the repositories in process memory. It backs
// STORE_DRIVER=memory and the service tests.
package memory

import (
	"github.com/aman7661/sumitTradingCompany/internal/models"
	"github.com/aman7661/sumitTradingCompany/internal/repository"
)

// NewStore returns a Store whose repositories share nothing but the process.
func NewStore() *repository.Store {
	return &repository.Store{
		Products:  NewProductRepository(),
		Orders:    NewOrderRepository(),
		Users:     NewUserRepository(),
		Sequences: repository.NewMemorySequence(),
	}
}

// Values are copied on the way in and out so callers never share memory with the store.

func cloneProduct(p *models.Product) *models.Product {
	c := *p
	if p.DiscountPrice != nil {
		d := *p.DiscountPrice
		c.DiscountPrice = &d
	}
	c.Tags = append([]string(nil), p.Tags...)
	c.Images = append([]models.ProductImage(nil), p.Images...)
	return &c
}

func cloneOrder(o *models.Order) *models.Order {
	c := *o
	c.Items = make([]models.OrderItem, len(o.Items))
	for i, item := range o.Items {
		item.Product = nil
		c.Items[i] = item
	}
	c.User = nil
	return &c
}

func cloneUser(u *models.User) *models.User {
	c := *u
	return &c
}
