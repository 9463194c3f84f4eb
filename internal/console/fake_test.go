package console

import (
	"context"
	"errors"
	"sync"

	"github.com/kdudkov/tgsubs/pkg/model"
	"github.com/kdudkov/tgsubs/pkg/request"
)

var errBoom = errors.New("connection refused")

type fakeAPI struct {
	mx sync.Mutex

	subs     []*model.SubscriptionDTO
	products []*model.ProductDTO
	groups   []*model.TelegramGroupDTO
	users    []*model.UserDTO
	total    int

	subsHook func(ctx context.Context, q model.ListQuery) (*model.Page[*model.SubscriptionDTO], error)

	subsErr     error
	productsErr error
	usersErr    error
	mutateErr   error

	queries   []model.ListQuery
	cancelled []uint
	created   []*model.ProductRequest
	updated   map[uint]*model.ProductRequest
	deleted   []uint
	mapped    map[uint]*model.MapRequest
	unmapped  []uint
	subscribe []*model.SubscribeRequest
	unmappedQ int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		subs: []*model.SubscriptionDTO{
			sub(1, "alice@example.com", 1, model.StatusActive),
			sub(2, "bob@example.com", 2, model.StatusPendingJoin),
			sub(3, "carol@example.com", 1, model.StatusCancelled),
		},
		products: []*model.ProductDTO{
			{ID: 1, Name: "Gold", TelegramGroup: &model.TelegramGroupDTO{ID: 1, TelegramGroupID: "-100", IsActive: true}},
			{ID: 2, Name: "Silver"},
		},
		groups: []*model.TelegramGroupDTO{
			{ID: 1, TelegramGroupID: "-100", TelegramGroupName: "gold chat", ProductID: ptr(uint(1)), IsActive: true},
			{ID: 2, TelegramGroupID: "-200", TelegramGroupName: "free chat", IsActive: true},
			{ID: 3, TelegramGroupID: "-300", TelegramGroupName: "old chat", IsActive: false},
		},
		users: []*model.UserDTO{
			{ID: 1, Email: "alice@example.com", TelegramUserID: "42", TelegramUsername: "alice"},
			{ID: 2, Email: "bob@example.com"},
		},
		total:   25,
		updated: make(map[uint]*model.ProductRequest),
		mapped:  make(map[uint]*model.MapRequest),
	}
}

func sub(id uint, email string, productID uint, status model.Status) *model.SubscriptionDTO {
	return &model.SubscriptionDTO{
		ID:      id,
		User:    &model.UserDTO{ID: id, Email: email},
		Product: &model.ProductDTO{ID: productID, Name: "p"},
		Status:  status,
	}
}

func ptr[T any](v T) *T {
	return &v
}

func (f *fakeAPI) fetches() []model.ListQuery {
	f.mx.Lock()
	defer f.mx.Unlock()

	return append([]model.ListQuery(nil), f.queries...)
}

func (f *fakeAPI) set(fn func(f *fakeAPI)) {
	f.mx.Lock()
	defer f.mx.Unlock()

	fn(f)
}

func (f *fakeAPI) GetProducts(_ context.Context) ([]*model.ProductDTO, error) {
	f.mx.Lock()
	defer f.mx.Unlock()

	return f.products, f.productsErr
}

func (f *fakeAPI) GetProduct(_ context.Context, id uint) (*model.ProductDTO, error) {
	f.mx.Lock()
	defer f.mx.Unlock()

	if f.productsErr != nil {
		return nil, f.productsErr
	}

	for _, p := range f.products {
		if p.ID == id {
			return p, nil
		}
	}

	return nil, &request.StatusError{Code: 404, Status: "404 Not Found", Message: "Product not found"}
}

func (f *fakeAPI) CreateProduct(_ context.Context, p *model.ProductRequest) (*model.ProductDTO, error) {
	f.mx.Lock()
	defer f.mx.Unlock()

	if f.mutateErr != nil {
		return nil, f.mutateErr
	}

	f.created = append(f.created, p)

	return &model.ProductDTO{Name: p.Name}, nil
}

func (f *fakeAPI) UpdateProduct(_ context.Context, id uint, p *model.ProductRequest) (*model.ProductDTO, error) {
	f.mx.Lock()
	defer f.mx.Unlock()

	if f.mutateErr != nil {
		return nil, f.mutateErr
	}

	f.updated[id] = p

	return &model.ProductDTO{ID: id, Name: p.Name}, nil
}

func (f *fakeAPI) DeleteProduct(_ context.Context, id uint) error {
	f.mx.Lock()
	defer f.mx.Unlock()

	if f.mutateErr != nil {
		return f.mutateErr
	}

	f.deleted = append(f.deleted, id)

	return nil
}

func (f *fakeAPI) GetGroups(_ context.Context) ([]*model.TelegramGroupDTO, error) {
	f.mx.Lock()
	defer f.mx.Unlock()

	return f.groups, nil
}

func (f *fakeAPI) GetUnmappedGroups(_ context.Context) ([]*model.TelegramGroupDTO, error) {
	f.mx.Lock()
	defer f.mx.Unlock()

	f.unmappedQ++

	var res []*model.TelegramGroupDTO

	for _, g := range f.groups {
		if !g.Mapped() {
			res = append(res, g)
		}
	}

	return res, nil
}

func (f *fakeAPI) MapProduct(_ context.Context, productID uint, m *model.MapRequest) (*model.TelegramGroupDTO, error) {
	f.mx.Lock()
	defer f.mx.Unlock()

	if f.mutateErr != nil {
		return nil, f.mutateErr
	}

	f.mapped[productID] = m

	return &model.TelegramGroupDTO{TelegramGroupID: m.TelegramGroupID, ProductID: &productID}, nil
}

func (f *fakeAPI) UnmapProduct(_ context.Context, productID uint) error {
	f.mx.Lock()
	defer f.mx.Unlock()

	if f.mutateErr != nil {
		return f.mutateErr
	}

	f.unmapped = append(f.unmapped, productID)

	return nil
}

func (f *fakeAPI) GetSubscriptions(ctx context.Context, q model.ListQuery) (*model.Page[*model.SubscriptionDTO], error) {
	f.mx.Lock()
	f.queries = append(f.queries, q)
	hook := f.subsHook
	f.mx.Unlock()

	if hook != nil {
		return hook(ctx, q)
	}

	f.mx.Lock()
	defer f.mx.Unlock()

	if f.subsErr != nil {
		return nil, f.subsErr
	}

	pages := (f.total + q.PerPage - 1) / q.PerPage

	return &model.Page[*model.SubscriptionDTO]{
		Items:   f.subs,
		Page:    min(q.Page, max(pages, 1)),
		PerPage: q.PerPage,
		Total:   f.total,
		Pages:   pages,
	}, nil
}

func (f *fakeAPI) Subscribe(_ context.Context, s *model.SubscribeRequest) (*model.SubscribeResult, error) {
	f.mx.Lock()
	defer f.mx.Unlock()

	if f.mutateErr != nil {
		return nil, f.mutateErr
	}

	f.subscribe = append(f.subscribe, s)

	return &model.SubscribeResult{Message: "Subscription created successfully", InviteLink: "https://t.me/+abc"}, nil
}

func (f *fakeAPI) CancelSubscription(_ context.Context, id uint) error {
	f.mx.Lock()
	defer f.mx.Unlock()

	if f.mutateErr != nil {
		return f.mutateErr
	}

	f.cancelled = append(f.cancelled, id)

	return nil
}

func (f *fakeAPI) GetUsers(_ context.Context) ([]*model.UserDTO, error) {
	f.mx.Lock()
	defer f.mx.Unlock()

	return f.users, f.usersErr
}

type fakeScroll struct {
	mx       sync.Mutex
	offset   int
	restored []int
}

func (s *fakeScroll) Offset() int {
	s.mx.Lock()
	defer s.mx.Unlock()

	return s.offset
}

func (s *fakeScroll) Restore(offset int) {
	s.mx.Lock()
	defer s.mx.Unlock()

	s.restored = append(s.restored, offset)
}
