// Package console contains the view-models behind the admin console screens.
// They hold screen state, talk to the REST API and never draw anything.
package console

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kdudkov/tgsubs/pkg/model"
	"github.com/kdudkov/tgsubs/pkg/request"
)

const (
	msgLoadFailed = "Failed to load data. Please try again later."
)

var (
	ErrNotCancellable = errors.New("subscription is already cancelled")
	ErrNotFound       = errors.New("not found")
	ErrValidation     = errors.New("validation error")

	validate = validator.New()
)

// Backend is the part of the REST API the screens use.
type Backend interface {
	GetProducts(ctx context.Context) ([]*model.ProductDTO, error)
	GetProduct(ctx context.Context, id uint) (*model.ProductDTO, error)
	CreateProduct(ctx context.Context, p *model.ProductRequest) (*model.ProductDTO, error)
	UpdateProduct(ctx context.Context, id uint, p *model.ProductRequest) (*model.ProductDTO, error)
	DeleteProduct(ctx context.Context, id uint) error

	GetGroups(ctx context.Context) ([]*model.TelegramGroupDTO, error)
	GetUnmappedGroups(ctx context.Context) ([]*model.TelegramGroupDTO, error)
	MapProduct(ctx context.Context, productID uint, m *model.MapRequest) (*model.TelegramGroupDTO, error)
	UnmapProduct(ctx context.Context, productID uint) error

	GetSubscriptions(ctx context.Context, q model.ListQuery) (*model.Page[*model.SubscriptionDTO], error)
	Subscribe(ctx context.Context, s *model.SubscribeRequest) (*model.SubscribeResult, error)
	CancelSubscription(ctx context.Context, id uint) error

	GetUsers(ctx context.Context) ([]*model.UserDTO, error)
}

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseLoaded
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseLoaded:
		return "loaded"
	case PhaseError:
		return "error"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Confirmer asks the user a yes/no question. It may block until answered.
type Confirmer interface {
	Confirm(prompt string) bool
}

type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool {
	return f(prompt)
}

// Scroller gives access to the scroll position of the list widget.
type Scroller interface {
	Offset() int
	Restore(offset int)
}

// confirmed is false when nobody can be asked.
func confirmed(c Confirmer, prompt string) bool {
	return c != nil && c.Confirm(prompt)
}

// userMessage turns err into one line fit for the user: the server's own
// message when it sent one, fallback otherwise.
func userMessage(err error, fallback string) string {
	var se *request.StatusError

	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}

	var ve validator.ValidationErrors

	if errors.As(err, &ve) {
		return validationMessage(ve)
	}

	return fallback
}

func validationMessage(ve validator.ValidationErrors) string {
	msgs := make([]string, 0, len(ve))

	for _, fe := range ve {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "email":
			msgs = append(msgs, "Please enter a valid email address")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fe.Field()+" is invalid")
		}
	}

	return strings.Join(msgs, "; ")
}

func validateStruct(s any) error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	return nil
}
