package console

import "github.com/kdudkov/tgsubs/pkg/model"

// Filter is the part of the list filter that is checked again on the client.
// User and search filters are server only.
type Filter struct {
	Status    model.Status
	ProductID uint
}

// Refine drops rows that do not match f. A page fetched under an older
// filter value can still be on screen when the filter changes.
func Refine(subs []*model.SubscriptionDTO, f Filter) []*model.SubscriptionDTO {
	res := make([]*model.SubscriptionDTO, 0, len(subs))

	for _, s := range subs {
		if s == nil {
			continue
		}

		if f.Status != "" && s.Status != f.Status {
			continue
		}

		if f.ProductID != 0 && s.ProductID() != f.ProductID {
			continue
		}

		res = append(res, s)
	}

	return res
}
