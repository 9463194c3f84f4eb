package console

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/kdudkov/tgsubs/internal/debounce"
	"github.com/kdudkov/tgsubs/internal/query"
	"github.com/kdudkov/tgsubs/pkg/model"
)

const msgCancelFailed = "Failed to cancel subscription. Please try again."

var errEmptyPage = errors.New("empty subscriptions page")

// SubscriptionsView is the admin subscription list: server side paging,
// sorting, search and filters.
//
// Search and filter edits are debounced; paging and sorting fetch at once.
// Every fetch cycle is numbered and only the latest one may commit.
type SubscriptionsView struct {
	api    Backend
	logger *zap.SugaredLogger

	mx       sync.Mutex
	ctx      context.Context
	stop     context.CancelFunc
	state    *query.State
	debounce *debounce.Debouncer
	seq      uint64
	inflight context.CancelFunc
	phase    Phase
	errMsg   string
	items    []*model.SubscriptionDTO
	products []*model.ProductDTO
	users    []*model.UserDTO
	closed   bool

	confirm  Confirmer
	scroll   Scroller
	onChange func()
	spawn    func(f func())
}

// SubscriptionsSnapshot is a consistent copy of the view for rendering.
type SubscriptionsSnapshot struct {
	Phase    Phase
	Error    string
	Items    []*model.SubscriptionDTO
	Products []*model.ProductDTO
	Users    []*model.UserDTO
	Query    model.ListQuery
	Pager    Pager
}

type fetchCycle struct {
	seq    uint64
	q      model.ListQuery
	ctx    context.Context
	cancel context.CancelFunc
	offset int
}

func NewSubscriptionsView(api Backend, perPage int, quiet time.Duration, logger *zap.SugaredLogger) *SubscriptionsView {
	ctx, cancel := context.WithCancel(context.Background())

	return &SubscriptionsView{
		api:      api,
		logger:   logger.Named("subscriptions"),
		ctx:      ctx,
		stop:     cancel,
		state:    query.New(perPage),
		debounce: debounce.New(quiet),
		phase:    PhaseIdle,
		spawn:    func(f func()) { go f() },
	}
}

func (v *SubscriptionsView) SetConfirmer(c Confirmer) {
	v.mx.Lock()
	defer v.mx.Unlock()

	v.confirm = c
}

func (v *SubscriptionsView) SetScroller(s Scroller) {
	v.mx.Lock()
	defer v.mx.Unlock()

	v.scroll = s
}

// SetOnChange sets the callback run after every visible state change.
func (v *SubscriptionsView) SetOnChange(f func()) {
	v.mx.Lock()
	defer v.mx.Unlock()

	v.onChange = f
}

func (v *SubscriptionsView) SetDebounce(d time.Duration) {
	v.debounce.SetInterval(d)
}

// Start loads the first page.
func (v *SubscriptionsView) Start() {
	v.fetchNow()
}

// Refresh fetches the current page again.
func (v *SubscriptionsView) Refresh() {
	v.fetchNow()
}

func (v *SubscriptionsView) SetSearch(s string) {
	v.edit(func(st *query.State) bool { return st.SetSearch(s) })
}

func (v *SubscriptionsView) SetStatus(s model.Status) {
	v.edit(func(st *query.State) bool { return st.SetStatus(s) })
}

func (v *SubscriptionsView) SetProductID(id uint) {
	v.edit(func(st *query.State) bool { return st.SetProductID(id) })
}

func (v *SubscriptionsView) SetUserID(id uint) {
	v.edit(func(st *query.State) bool { return st.SetUserID(id) })
}

func (v *SubscriptionsView) SetPage(n int) {
	v.navigate(func(st *query.State) bool { return st.SetPage(n) })
}

func (v *SubscriptionsView) NextPage() {
	v.navigate(func(st *query.State) bool { return st.SetPage(st.Page + 1) })
}

func (v *SubscriptionsView) PrevPage() {
	v.navigate(func(st *query.State) bool { return st.SetPage(st.Page - 1) })
}

func (v *SubscriptionsView) SetPerPage(n int) {
	v.navigate(func(st *query.State) bool { return st.SetPerPage(n) })
}

func (v *SubscriptionsView) SortBy(col string) {
	v.navigate(func(st *query.State) bool { return st.SetSort(col) })
}

// CancelSubscription asks for confirmation, cancels the subscription on the
// server and reloads the list. Declining is not an error.
func (v *SubscriptionsView) CancelSubscription(ctx context.Context, id uint) error {
	v.mx.Lock()
	sub := v.find(id)
	confirm := v.confirm
	v.mx.Unlock()

	if sub == nil {
		return fmt.Errorf("subscription %d: %w", id, ErrNotFound)
	}

	if !CanCancel(sub) {
		return fmt.Errorf("subscription %d: %w", id, ErrNotCancellable)
	}

	if !confirmed(confirm, fmt.Sprintf("Cancel subscription of %s to %s?", sub.Email(), sub.ProductName())) {
		return nil
	}

	if err := v.api.CancelSubscription(ctx, id); err != nil {
		v.logger.Errorf("cancel subscription %d: %s", id, err.Error())
		v.setError(userMessage(err, msgCancelFailed))

		return fmt.Errorf("cancel subscription %d: %w", id, err)
	}

	v.logger.Infof("subscription %d cancelled", id)
	v.fetchNow()

	return nil
}

// Close cancels the scheduled fetch and abandons the running one.
func (v *SubscriptionsView) Close() {
	v.mx.Lock()
	v.closed = true
	v.mx.Unlock()

	v.debounce.Close()
	v.stop()
}

func (v *SubscriptionsView) Snapshot() SubscriptionsSnapshot {
	v.mx.Lock()
	defer v.mx.Unlock()

	return SubscriptionsSnapshot{
		Phase:    v.phase,
		Error:    v.errMsg,
		Items:    Refine(v.items, Filter{Status: v.state.Status, ProductID: v.state.ProductID}),
		Products: v.products,
		Users:    v.users,
		Query:    v.state.Query(),
		Pager:    Pager{Page: v.state.Page, PerPage: v.state.PerPage, Total: v.state.Total, Pages: v.state.Pages},
	}
}

func (v *SubscriptionsView) Phase() Phase {
	v.mx.Lock()
	defer v.mx.Unlock()

	return v.phase
}

// edit changes a search or filter value. The fetch waits for a quiet period.
func (v *SubscriptionsView) edit(f func(st *query.State) bool) {
	v.mx.Lock()

	if v.closed || !f(v.state) {
		v.mx.Unlock()
		return
	}

	v.mx.Unlock()

	v.debounce.Call(v.fetchSync)
	v.notify()
}

// navigate changes page, page size or sort and fetches at once.
func (v *SubscriptionsView) navigate(f func(st *query.State) bool) {
	v.mx.Lock()

	if v.closed || !f(v.state) {
		v.mx.Unlock()
		return
	}

	v.mx.Unlock()

	v.fetchNow()
}

// fetchNow starts a fetch cycle in the background. A scheduled debounced
// fetch is dropped, the new cycle already carries the latest state.
func (v *SubscriptionsView) fetchNow() {
	v.debounce.Cancel()

	c := v.begin()
	if c == nil {
		return
	}

	v.notify()
	v.spawn(func() { v.run(c) })
}

func (v *SubscriptionsView) fetchSync() {
	c := v.begin()
	if c == nil {
		return
	}

	v.notify()
	v.run(c)
}

func (v *SubscriptionsView) begin() *fetchCycle {
	v.mx.Lock()
	defer v.mx.Unlock()

	if v.closed {
		return nil
	}

	if v.inflight != nil {
		v.inflight()
	}

	v.seq++
	ctx, cancel := context.WithCancel(v.ctx)
	v.inflight = cancel
	v.phase = PhaseLoading

	c := &fetchCycle{seq: v.seq, q: v.state.Query(), ctx: ctx, cancel: cancel}

	if v.scroll != nil {
		c.offset = v.scroll.Offset()
	}

	return c
}

func (v *SubscriptionsView) run(c *fetchCycle) {
	defer c.cancel()

	var (
		page     *model.Page[*model.SubscriptionDTO]
		products []*model.ProductDTO
		users    []*model.UserDTO
	)

	p := pool.New().WithContext(c.ctx).WithCancelOnError().WithFirstError()

	p.Go(func(ctx context.Context) error {
		var err error
		page, err = v.api.GetSubscriptions(ctx, c.q)

		if err == nil && page == nil {
			err = errEmptyPage
		}

		return err
	})

	p.Go(func(ctx context.Context) error {
		var err error
		products, err = v.api.GetProducts(ctx)

		return err
	})

	p.Go(func(ctx context.Context) error {
		var err error
		users, err = v.api.GetUsers(ctx)

		return err
	})

	err := p.Wait()

	v.mx.Lock()

	if v.closed || c.seq != v.seq || c.q != v.state.Query() {
		v.mx.Unlock()
		v.logger.Debugf("fetch #%d is stale, dropped", c.seq)

		return
	}

	v.inflight = nil

	if err != nil {
		v.phase = PhaseError
		v.errMsg = msgLoadFailed
		v.mx.Unlock()

		v.logger.Errorf("fetch #%d failed: %s", c.seq, err.Error())
		v.notify()

		return
	}

	// the list shrank under us, ask for the last page instead
	if page.Pages > 0 && page.Page > page.Pages {
		v.inflight = nil
		v.state.Apply(page.Page, page.PerPage, page.Total, page.Pages)
		v.mx.Unlock()

		v.logger.Debugf("fetch #%d: page %d is past the last page %d, refetching", c.seq, page.Page, page.Pages)
		v.fetchNow()

		return
	}

	v.items = page.Items
	v.products = products
	v.users = users
	v.state.Apply(page.Page, page.PerPage, page.Total, page.Pages)
	v.phase = PhaseLoaded
	v.errMsg = ""
	scroll := v.scroll
	v.mx.Unlock()

	v.logger.Debugf("fetch #%d: %d of %d subscriptions", c.seq, len(page.Items), page.Total)

	if scroll != nil {
		scroll.Restore(c.offset)
	}

	v.notify()
}

func (v *SubscriptionsView) find(id uint) *model.SubscriptionDTO {
	for _, s := range v.items {
		if s != nil && s.ID == id {
			return s
		}
	}

	return nil
}

func (v *SubscriptionsView) setError(msg string) {
	v.mx.Lock()
	v.errMsg = msg
	v.mx.Unlock()

	v.notify()
}

func (v *SubscriptionsView) notify() {
	v.mx.Lock()
	f := v.onChange
	v.mx.Unlock()

	if f != nil {
		f()
	}
}
