package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kdudkov/tgsubs/pkg/model"
	"github.com/kdudkov/tgsubs/pkg/request"
)

const httpTimeout = time.Second * 10

var errNil = errors.New("empty answer")

// RemoteAPI is the client of the subscription service REST API.
type RemoteAPI struct {
	logger  *zap.SugaredLogger
	baseURL string
	client  *http.Client
}

func NewRemoteAPI(baseURL string, timeout time.Duration, logger *zap.SugaredLogger) *RemoteAPI {
	if timeout <= 0 {
		timeout = httpTimeout
	}

	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.ResponseHeaderTimeout = timeout

	return &RemoteAPI{
		baseURL: baseURL,
		logger:  logger.Named("remote_api"),
		client:  &http.Client{Timeout: timeout, Transport: tr},
	}
}

func (r *RemoteAPI) SetTransport(t http.RoundTripper) {
	r.client.Transport = t
}

func (r *RemoteAPI) request(path string) *request.Request {
	return request.New(r.client, r.logger).URL(r.baseURL + path)
}

func (r *RemoteAPI) GetProducts(ctx context.Context) ([]*model.ProductDTO, error) {
	res := make([]*model.ProductDTO, 0)

	if err := r.request("/products").GetJSON(ctx, &res); err != nil {
		return nil, err
	}

	return res, nil
}

func (r *RemoteAPI) GetProduct(ctx context.Context, id uint) (*model.ProductDTO, error) {
	res := new(model.ProductDTO)

	if err := r.request(fmt.Sprintf("/products/%d", id)).GetJSON(ctx, res); err != nil {
		return nil, err
	}

	return res, nil
}

func (r *RemoteAPI) CreateProduct(ctx context.Context, p *model.ProductRequest) (*model.ProductDTO, error) {
	res := new(model.ProductDTO)

	if err := r.request("/products").Post().JSON(p).GetJSON(ctx, res); err != nil {
		return nil, err
	}

	return res, nil
}

func (r *RemoteAPI) UpdateProduct(ctx context.Context, id uint, p *model.ProductRequest) (*model.ProductDTO, error) {
	res := new(model.ProductDTO)

	if err := r.request(fmt.Sprintf("/products/%d", id)).Put().JSON(p).GetJSON(ctx, res); err != nil {
		return nil, err
	}

	return res, nil
}

func (r *RemoteAPI) DeleteProduct(ctx context.Context, id uint) error {
	return r.request(fmt.Sprintf("/products/%d", id)).Delete().Exec(ctx)
}

func (r *RemoteAPI) GetGroups(ctx context.Context) ([]*model.TelegramGroupDTO, error) {
	res := make([]*model.TelegramGroupDTO, 0)

	if err := r.request("/groups").GetJSON(ctx, &res); err != nil {
		return nil, err
	}

	return res, nil
}

func (r *RemoteAPI) GetUnmappedGroups(ctx context.Context) ([]*model.TelegramGroupDTO, error) {
	res := make([]*model.TelegramGroupDTO, 0)

	if err := r.request("/groups/unmapped").GetJSON(ctx, &res); err != nil {
		return nil, err
	}

	return res, nil
}

func (r *RemoteAPI) MapProduct(ctx context.Context, productID uint, m *model.MapRequest) (*model.TelegramGroupDTO, error) {
	res := new(model.TelegramGroupDTO)

	if err := r.request(fmt.Sprintf("/products/%d/map", productID)).Post().JSON(m).GetJSON(ctx, res); err != nil {
		return nil, err
	}

	return res, nil
}

func (r *RemoteAPI) UnmapProduct(ctx context.Context, productID uint) error {
	return r.request(fmt.Sprintf("/products/%d/unmap", productID)).Delete().Exec(ctx)
}

func (r *RemoteAPI) GetSubscriptions(ctx context.Context, q model.ListQuery) (*model.Page[*model.SubscriptionDTO], error) {
	var res *model.Page[*model.SubscriptionDTO]

	if err := r.request("/subscriptions").Args(q.Args()).GetJSON(ctx, &res); err != nil {
		return nil, err
	}

	if res == nil {
		return nil, errNil
	}

	return res, nil
}

func (r *RemoteAPI) Subscribe(ctx context.Context, s *model.SubscribeRequest) (*model.SubscribeResult, error) {
	res := new(model.SubscribeResult)

	if err := r.request("/subscribe").Post().JSON(s).GetJSON(ctx, res); err != nil {
		return nil, err
	}

	return res, nil
}

func (r *RemoteAPI) CancelSubscription(ctx context.Context, id uint) error {
	return r.request(fmt.Sprintf("/subscriptions/%d/cancel", id)).Post().Exec(ctx)
}

func (r *RemoteAPI) GetUsers(ctx context.Context) ([]*model.UserDTO, error) {
	res := make([]*model.UserDTO, 0)

	if err := r.request("/users").GetJSON(ctx, &res); err != nil {
		return nil, err
	}

	return res, nil
}
