package console

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kdudkov/tgsubs/pkg/model"
	"github.com/kdudkov/tgsubs/pkg/request"
)

const (
	msgProductNotFound = "Product not found."
	msgSubscribeFailed = "Failed to subscribe. Please try again."
	msgSubscribed      = "Subscription created successfully"
)

// SubscribeForm subscribes one email to one product.
type SubscribeForm struct {
	api    Backend
	logger *zap.SugaredLogger

	mx      sync.Mutex
	phase   Phase
	errMsg  string
	product *model.ProductDTO
	result  *model.SubscribeResult
}

func NewSubscribeForm(api Backend, logger *zap.SugaredLogger) *SubscribeForm {
	return &SubscribeForm{api: api, logger: logger.Named("subscribe")}
}

// Load fetches the product the form subscribes to.
func (f *SubscribeForm) Load(ctx context.Context, productID uint) error {
	f.mx.Lock()
	f.phase = PhaseLoading
	f.product = nil
	f.result = nil
	f.mx.Unlock()

	p, err := f.api.GetProduct(ctx, productID)

	f.mx.Lock()
	defer f.mx.Unlock()

	if err != nil || p == nil {
		f.phase = PhaseError

		var se *request.StatusError
		if (p == nil && err == nil) || (errors.As(err, &se) && se.Code == 404) {
			f.errMsg = msgProductNotFound
			return fmt.Errorf("product %d: %w", productID, ErrNotFound)
		}

		f.logger.Errorf("load product %d: %s", productID, err.Error())
		f.errMsg = msgLoadFailed

		return fmt.Errorf("load product %d: %w", productID, err)
	}

	f.product = p
	f.phase = PhaseLoaded
	f.errMsg = ""

	return nil
}

func (f *SubscribeForm) Product() *model.ProductDTO {
	f.mx.Lock()
	defer f.mx.Unlock()

	return f.product
}

func (f *SubscribeForm) Result() *model.SubscribeResult {
	f.mx.Lock()
	defer f.mx.Unlock()

	return f.result
}

func (f *SubscribeForm) State() (Phase, string) {
	f.mx.Lock()
	defer f.mx.Unlock()

	return f.phase, f.errMsg
}

// Submit validates the input and creates the subscription.
// A nil expires means the server default.
func (f *SubscribeForm) Submit(ctx context.Context, email string, expires *time.Time) (*model.SubscribeResult, error) {
	f.mx.Lock()
	p := f.product
	f.mx.Unlock()

	if p == nil {
		return nil, fmt.Errorf("no product: %w", ErrNotFound)
	}

	req := &model.SubscribeRequest{
		Email:              strings.TrimSpace(email),
		ProductID:          p.ID,
		ExpirationDatetime: expires,
	}

	if err := validateStruct(req); err != nil {
		f.fail(userMessage(err, msgSubscribeFailed))
		return nil, err
	}

	res, err := f.api.Subscribe(ctx, req)
	if err != nil {
		f.logger.Errorf("subscribe %s to %d: %s", req.Email, p.ID, err.Error())
		f.fail(userMessage(err, msgSubscribeFailed))

		return nil, fmt.Errorf("subscribe: %w", err)
	}

	if res.Message == "" {
		res.Message = msgSubscribed
	}

	f.mx.Lock()
	f.result = res
	f.errMsg = ""
	f.mx.Unlock()

	f.logger.Infof("%s subscribed to %s", req.Email, p.Name)

	return res, nil
}

func (f *SubscribeForm) fail(msg string) {
	f.mx.Lock()
	defer f.mx.Unlock()

	f.result = nil
	f.errMsg = msg
}
