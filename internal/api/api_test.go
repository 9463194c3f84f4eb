package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/kdudkov/tgsubs/internal/backend"
	"github.com/kdudkov/tgsubs/internal/console"
	"github.com/kdudkov/tgsubs/internal/database"
	"github.com/kdudkov/tgsubs/internal/query"
	"github.com/kdudkov/tgsubs/pkg/model"
	"github.com/kdudkov/tgsubs/pkg/request"
)

var _ console.Backend = (*RemoteAPI)(nil)

type appTransport struct {
	app *fiber.App
}

func (t appTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.app.Test(req, -1)
}

func newTestAPI(t *testing.T) (*RemoteAPI, *database.DatabaseManager) {
	t.Helper()

	logger := zaptest.NewLogger(t).Sugar()

	db, err := database.GetDatabase(":memory:", false)
	require.NoError(t, err)

	dbm := database.New(db, logger)
	require.NoError(t, dbm.Migrate())

	srv := backend.NewServer(dbm, ":0", "/api", logger)

	r := NewRemoteAPI("http://backend/api", time.Second, logger)
	r.SetTransport(appTransport{app: srv.App()})

	return r, dbm
}

func TestProductsAndGroups(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestAPI(t)

	products, err := r.GetProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)

	p, err := r.CreateProduct(ctx, &model.ProductRequest{Name: "Gold", Description: "shiny"})
	require.NoError(t, err)
	assert.NotZero(t, p.ID)

	p, err = r.UpdateProduct(ctx, p.ID, &model.ProductRequest{Name: "Gold+"})
	require.NoError(t, err)
	assert.Equal(t, "Gold+", p.Name)

	g, err := r.MapProduct(ctx, p.ID, &model.MapRequest{TelegramGroupID: "-100", TelegramGroupName: "gold chat"})
	require.NoError(t, err)
	assert.True(t, g.Mapped())
	assert.Equal(t, "Gold+", g.ProductName())

	p, err = r.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, p.Mapped())

	groups, err := r.GetGroups(ctx)
	require.NoError(t, err)
	assert.Len(t, groups, 1)

	require.NoError(t, r.UnmapProduct(ctx, p.ID))

	groups, err = r.GetUnmappedGroups(ctx)
	require.NoError(t, err)
	assert.Len(t, groups, 1)

	require.NoError(t, r.DeleteProduct(ctx, p.ID))

	_, err = r.GetProduct(ctx, p.ID)

	var se *request.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Equal(t, "Product not found", se.Message)
}

func TestSubscriptions(t *testing.T) {
	ctx := context.Background()
	r, dbm := newTestAPI(t)

	p, err := r.CreateProduct(ctx, &model.ProductRequest{Name: "Gold"})
	require.NoError(t, err)

	_, err = r.MapProduct(ctx, p.ID, &model.MapRequest{TelegramGroupID: "-100", TelegramGroupName: "gold chat"})
	require.NoError(t, err)

	exp := time.Now().Add(time.Hour * 72).Truncate(time.Second)

	res, err := r.Subscribe(ctx, &model.SubscribeRequest{Email: "alice@example.com", ProductID: p.ID, ExpirationDatetime: &exp})
	require.NoError(t, err)
	assert.NotEmpty(t, res.InviteLink)
	assert.True(t, exp.Equal(res.SubscriptionExpiresAt.Time()))

	_, err = r.Subscribe(ctx, &model.SubscribeRequest{Email: "bob@example.com", ProductID: p.ID})
	require.NoError(t, err)

	page, err := r.GetSubscriptions(ctx, model.ListQuery{Page: 1, PerPage: 10, SortBy: query.SortEmail, SortOrder: model.SortDesc})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 1, page.Pages)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "bob@example.com", page.Items[0].Email())
	assert.Equal(t, "Not joined yet", console.TelegramInfo(page.Items[0].User))

	users, err := r.GetUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)

	page, err = r.GetSubscriptions(ctx, model.ListQuery{Page: 1, PerPage: 10, SortBy: query.SortCreated, SortOrder: model.SortAsc, UserID: users[0].ID})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "alice@example.com", page.Items[0].Email())

	require.NoError(t, r.CancelSubscription(ctx, page.Items[0].ID))

	err = r.CancelSubscription(ctx, page.Items[0].ID)

	var se *request.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "Subscription is already cancelled", se.Message)

	assert.Equal(t, int64(1), dbm.SubscriptionQuery().Status(model.StatusCancelled).Count())
}

// The whole list pipeline against the real server.
func TestSubscriptionsView(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestAPI(t)

	p, err := r.CreateProduct(ctx, &model.ProductRequest{Name: "Gold"})
	require.NoError(t, err)

	_, err = r.MapProduct(ctx, p.ID, &model.MapRequest{TelegramGroupID: "-100", TelegramGroupName: "gold chat"})
	require.NoError(t, err)

	for _, e := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		_, err = r.Subscribe(ctx, &model.SubscribeRequest{Email: e, ProductID: p.ID})
		require.NoError(t, err)
	}

	v := console.NewSubscriptionsView(r, 10, time.Millisecond*10, zaptest.NewLogger(t).Sugar())
	defer v.Close()

	v.SetConfirmer(console.ConfirmFunc(func(string) bool { return true }))

	v.Start()
	require.Eventually(t, func() bool { return v.Phase() == console.PhaseLoaded }, time.Second*5, time.Millisecond*10)
	assert.Len(t, v.Snapshot().Items, 3)

	v.SetSearch("b@x")
	require.Eventually(t, func() bool {
		s := v.Snapshot()
		return s.Phase == console.PhaseLoaded && len(s.Items) == 1
	}, time.Second*5, time.Millisecond*10)

	s := v.Snapshot()
	assert.Equal(t, "b@x.com", s.Items[0].Email())
	assert.Equal(t, "Showing 1 to 1 of 1 entries", s.Pager.Summary())

	require.NoError(t, v.CancelSubscription(ctx, s.Items[0].ID))
	require.Eventually(t, func() bool {
		s := v.Snapshot()
		return s.Phase == console.PhaseLoaded && len(s.Items) == 1 && s.Items[0].Status == model.StatusCancelled
	}, time.Second*5, time.Millisecond*10)
}

// Cancelling the only row of the last filtered page lands on the new last page.
func TestCancelLastRowOfLastPage(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestAPI(t)

	p, err := r.CreateProduct(ctx, &model.ProductRequest{Name: "Gold"})
	require.NoError(t, err)

	_, err = r.MapProduct(ctx, p.ID, &model.MapRequest{TelegramGroupID: "-100", TelegramGroupName: "gold chat"})
	require.NoError(t, err)

	for i := range 11 {
		_, err = r.Subscribe(ctx, &model.SubscribeRequest{Email: fmt.Sprintf("u%02d@x.com", i), ProductID: p.ID})
		require.NoError(t, err)
	}

	v := console.NewSubscriptionsView(r, 10, time.Millisecond*10, zaptest.NewLogger(t).Sugar())
	defer v.Close()

	v.SetConfirmer(console.ConfirmFunc(func(string) bool { return true }))
	v.Start()
	require.Eventually(t, func() bool { return v.Phase() == console.PhaseLoaded }, time.Second*5, time.Millisecond*10)

	v.SetStatus(model.StatusPendingJoin)
	require.Eventually(t, func() bool {
		s := v.Snapshot()
		return s.Phase == console.PhaseLoaded && s.Query.Status == model.StatusPendingJoin && s.Pager.Pages == 2
	}, time.Second*5, time.Millisecond*10)

	v.SetPage(2)
	require.Eventually(t, func() bool {
		s := v.Snapshot()
		return s.Phase == console.PhaseLoaded && s.Pager.Page == 2 && len(s.Items) == 1
	}, time.Second*5, time.Millisecond*10)

	require.NoError(t, v.CancelSubscription(ctx, v.Snapshot().Items[0].ID))
	require.Eventually(t, func() bool {
		s := v.Snapshot()
		return s.Phase == console.PhaseLoaded && s.Pager.Total == 10
	}, time.Second*5, time.Millisecond*10)

	s := v.Snapshot()
	assert.Equal(t, 1, s.Pager.Page)
	assert.Equal(t, 1, s.Pager.Pages)
	assert.Len(t, s.Items, 10)
	assert.Equal(t, "Showing 1 to 10 of 10 entries", s.Pager.Summary())
}

func TestTransportKeepsDefaults(t *testing.T) {
	r := NewRemoteAPI("http://backend/api", time.Second*3, zaptest.NewLogger(t).Sugar())

	tr, ok := r.client.Transport.(*http.Transport)
	require.True(t, ok)

	assert.Equal(t, time.Second*3, tr.ResponseHeaderTimeout)
	assert.NotNil(t, tr.Proxy)
	assert.NotNil(t, tr.DialContext)
	assert.Equal(t, http.DefaultTransport.(*http.Transport).IdleConnTimeout, tr.IdleConnTimeout)
	assert.Equal(t, time.Second*3, r.client.Timeout)
}
