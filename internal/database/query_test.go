package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/kdudkov/tgsubs/pkg/model"
)

func getTestManager(t *testing.T) *DatabaseManager {
	t.Helper()

	db, err := GetDatabase(":memory:", false)
	require.NoError(t, err)

	mm := New(db, zaptest.NewLogger(t).Sugar())
	require.NoError(t, mm.Migrate())

	return mm
}

func addProduct(t *testing.T, mm *DatabaseManager, name, group string) *model.Product {
	t.Helper()

	p := &model.Product{Name: name}
	require.NoError(t, mm.Create(p))

	if group != "" {
		_, err := mm.MapProduct(p.ID, group, group+" chat")
		require.NoError(t, err)
	}

	return p
}

func TestMapUnmap(t *testing.T) {
	mm := getTestManager(t)

	gold := addProduct(t, mm, "Gold", "")
	silver := addProduct(t, mm, "Silver", "")

	g, err := mm.MapProduct(gold.ID, " -100 ", "gold chat")
	require.NoError(t, err)
	assert.Equal(t, "-100", g.TelegramGroupID)
	assert.True(t, g.IsActive)
	assert.Equal(t, "Gold", g.Product.Name)

	_, err = mm.MapProduct(gold.ID, "-200", "other")
	assert.ErrorIs(t, err, ErrProductMapped)

	_, err = mm.MapProduct(silver.ID, "-100", "gold chat")
	assert.ErrorIs(t, err, ErrGroupMapped)

	_, err = mm.MapProduct(99, "-300", "x")
	assert.ErrorIs(t, err, ErrProductNotFound)

	assert.Len(t, mm.GroupQuery().Unmapped().Get(), 0)

	require.NoError(t, mm.UnmapProduct(gold.ID))
	assert.ErrorIs(t, mm.UnmapProduct(gold.ID), ErrNoMapping)
	assert.Len(t, mm.GroupQuery().Unmapped().Get(), 1)

	// known group is reused
	g, err = mm.MapProduct(silver.ID, "-100", "ignored")
	require.NoError(t, err)
	assert.Equal(t, "gold chat", g.TelegramGroupName)
	assert.Len(t, mm.GroupQuery().Get(), 1)
}

func TestSubscribe(t *testing.T) {
	mm := getTestManager(t)

	gold := addProduct(t, mm, "Gold", "-100")
	free := addProduct(t, mm, "Free", "")

	_, err := mm.Subscribe("a@example.com", free.ID, nil)
	require.ErrorIs(t, err, ErrProductNotMapped)

	_, err = mm.Subscribe("a@example.com", 99, nil)
	require.ErrorIs(t, err, ErrProductNotFound)

	s, err := mm.Subscribe("a@example.com", gold.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPendingJoin, s.Status)
	assert.Contains(t, s.InviteLinkURL, DefaultTerms.InviteBase)
	assert.Equal(t, DefaultTerms.InviteBase+*s.InviteLinkToken, s.InviteLinkURL)
	assert.WithinDuration(t, time.Now().Add(time.Hour*24*30), s.SubscriptionExpiresAt, time.Minute)
	assert.WithinDuration(t, time.Now().Add(time.Hour*24), *s.InviteLinkExpiresAt, time.Minute)

	// pending does not block a new one
	_, err = mm.Subscribe("a@example.com", gold.ID, nil)
	require.NoError(t, err)
	assert.Len(t, mm.UserQuery().Get(), 1)

	_, err = mm.Join(*s.InviteLinkToken, "42", "alice")
	require.NoError(t, err)

	_, err = mm.Join(*s.InviteLinkToken, "42", "alice")
	require.ErrorIs(t, err, ErrInviteInvalid)

	_, err = mm.Subscribe("a@example.com", gold.ID, nil)
	require.ErrorIs(t, err, ErrActiveSubscription)

	exp := time.Now().Add(time.Hour * 48)
	s, err = mm.Subscribe("b@example.com", gold.ID, &exp)
	require.NoError(t, err)
	assert.WithinDuration(t, exp, s.SubscriptionExpiresAt, time.Second)

	mm.now = func() time.Time { return time.Now().Add(time.Hour * 25) }

	_, err = mm.Join(*s.InviteLinkToken, "43", "bob")
	require.ErrorIs(t, err, ErrInviteInvalid)
}

func TestCancelAndExpire(t *testing.T) {
	mm := getTestManager(t)

	gold := addProduct(t, mm, "Gold", "-100")

	past := time.Now().Add(-time.Hour)
	s1, err := mm.Subscribe("a@example.com", gold.ID, &past)
	require.NoError(t, err)
	s2, err := mm.Subscribe("b@example.com", gold.ID, &past)
	require.NoError(t, err)

	_, err = mm.Join(*s1.InviteLinkToken, "1", "a")
	require.NoError(t, err)

	n, err := mm.ExpireDue()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	assert.Equal(t, model.StatusExpired, mm.SubscriptionQuery().Id(s1.ID).One().Status)
	assert.Equal(t, model.StatusPendingJoin, mm.SubscriptionQuery().Id(s2.ID).One().Status)

	require.NoError(t, mm.CancelSubscription(s2.ID))
	assert.ErrorIs(t, mm.CancelSubscription(s2.ID), ErrAlreadyCancelled)
	assert.ErrorIs(t, mm.CancelSubscription(99), ErrSubscriptionNotFound)
}

func TestSubscriptionQuery(t *testing.T) {
	mm := getTestManager(t)

	gold := addProduct(t, mm, "Gold", "-100")
	silver := addProduct(t, mm, "Silver", "-200")

	for _, e := range []string{"alice@example.com", "bob@example.com", "carol@test.org"} {
		_, err := mm.Subscribe(e, gold.ID, nil)
		require.NoError(t, err)
	}

	s, err := mm.Subscribe("zed.BOB@test.org", silver.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(4), mm.SubscriptionQuery().Count())
	assert.Equal(t, int64(2), mm.SubscriptionQuery().Search("Bob").Count())
	assert.Equal(t, int64(1), mm.SubscriptionQuery().Search("silv").Count())
	assert.Equal(t, int64(2), mm.SubscriptionQuery().Search("test.org").Count())
	assert.Equal(t, int64(1), mm.SubscriptionQuery().Product(silver.ID).Count())
	assert.Equal(t, int64(1), mm.SubscriptionQuery().User(s.UserID).Count())
	assert.Equal(t, int64(0), mm.SubscriptionQuery().Status(model.StatusActive).Count())

	res := mm.SubscriptionQuery().Sort("email", model.SortAsc).Limit(2).Offset(1).Get()
	require.Len(t, res, 2)
	assert.Equal(t, "bob@example.com", res[0].User.Email)
	assert.Equal(t, "carol@test.org", res[1].User.Email)
	assert.Equal(t, "Gold", res[0].Product.Name)

	res = mm.SubscriptionQuery().Sort("product", model.SortDesc).Limit(1).Get()
	require.Len(t, res, 1)
	assert.Equal(t, "Silver", res[0].Product.Name)

	// unknown column
	res = mm.SubscriptionQuery().Sort("password", model.SortAsc).Get()
	require.Len(t, res, 4)
	assert.Equal(t, "alice@example.com", res[0].User.Email)
}

func TestDeleteProduct(t *testing.T) {
	mm := getTestManager(t)

	gold := addProduct(t, mm, "Gold", "-100")
	silver := addProduct(t, mm, "Silver", "-200")

	_, err := mm.Subscribe("a@example.com", gold.ID, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, mm.DeleteProduct(gold.ID), ErrProductInUse)
	assert.ErrorIs(t, mm.DeleteProduct(99), ErrProductNotFound)

	require.NoError(t, mm.DeleteProduct(silver.ID))
	assert.Nil(t, mm.ProductQuery().Id(silver.ID).One())
	assert.Len(t, mm.GroupQuery().Unmapped().Get(), 1)

	p, err := mm.UpdateProduct(gold.ID, "Gold+", "shiny")
	require.NoError(t, err)
	assert.Equal(t, "Gold+", p.Name)
	assert.NotNil(t, p.TelegramGroup)

	_, err = mm.UpdateProduct(99, "x", "")
	assert.ErrorIs(t, err, ErrProductNotFound)
}
