package backend

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/kdudkov/tgsubs/internal/database"
	"github.com/kdudkov/tgsubs/pkg/model"
)

type subscribeBody struct {
	Email              string         `json:"email" validate:"required,email"`
	ProductID          uint           `json:"product_id" validate:"required"`
	ExpirationDatetime model.NullTime `json:"expiration_datetime"`
}

type joinBody struct {
	Token            string `json:"token" validate:"required"`
	TelegramUserID   string `json:"telegram_user_id" validate:"required"`
	TelegramUsername string `json:"telegram_username"`
}

type validationError struct {
	errs map[string]string
}

func (e *validationError) Error() string {
	return "Validation error"
}

// parse reads and validates the JSON body.
func (s *Server) parse(ctx *fiber.Ctx, obj any) error {
	if err := ctx.BodyParser(obj); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := s.validate.Struct(obj); err != nil {
		var ve validator.ValidationErrors

		if !errors.As(err, &ve) {
			return err
		}

		errs := make(map[string]string, len(ve))

		for _, fe := range ve {
			errs[fe.Field()] = fe.Tag()
		}

		return &validationError{errs: errs}
	}

	return nil
}

func (s *Server) getProductsHandler() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		products := s.dbm.ProductQuery().Full().Get()

		return ctx.JSON(model.DTOList[*model.Product, model.ProductDTO](products))
	}
}

func (s *Server) getProductHandler() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		id, _ := ctx.ParamsInt("id")

		p := s.dbm.ProductQuery().Id(uint(id)).Full().One()

		if p == nil {
			return database.ErrProductNotFound
		}

		return ctx.JSON(p.DTO())
	}
}

func (s *Server) createProductHandler() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		var req model.ProductRequest

		if err := s.parse(ctx, &req); err != nil {
			return err
		}

		p := &model.Product{Name: strings.TrimSpace(req.Name), Description: req.Description}

		if err := s.dbm.Create(p); err != nil {
			return err
		}

		return ctx.Status(fiber.StatusCreated).JSON(p.DTO())
	}
}

func (s *Server) updateProductHandler() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		id, _ := ctx.ParamsInt("id")

		var req model.ProductRequest

		if err := s.parse(ctx, &req); err != nil {
			return err
		}

		p, err := s.dbm.UpdateProduct(uint(id), strings.TrimSpace(req.Name), req.Description)
		if err != nil {
			return err
		}

		return ctx.JSON(p.DTO())
	}
}

func (s *Server) deleteProductHandler() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		id, _ := ctx.ParamsInt("id")

		if err := s.dbm.DeleteProduct(uint(id)); err != nil {
			return err
		}

		return ctx.JSON(model.Message{Message: "Product deleted successfully"})
	}
}

func (s *Server) mapProductHandler() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		id, _ := ctx.ParamsInt("id")

		var req model.MapRequest

		if err := ctx.BodyParser(&req); err != nil || req.TelegramGroupID == "" || req.TelegramGroupName == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Missing required fields: telegram_group_id and telegram_group_name")
		}

		g, err := s.dbm.MapProduct(uint(id), req.TelegramGroupID, req.TelegramGroupName)
		if err != nil {
			return err
		}

		return ctx.JSON(g.DTO())
	}
}

func (s *Server) unmapProductHandler() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		id, _ := ctx.ParamsInt("id")

		if err := s.dbm.UnmapProduct(uint(id)); err != nil {
			return err
		}

		return ctx.JSON(model.Message{Message: "Product unmapped successfully"})
	}
}

func (s *Server) getGroupsHandler(unmapped bool) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		q := s.dbm.GroupQuery().Full()

		if unmapped {
			q = q.Unmapped()
		}

		return ctx.JSON(model.DTOList[*model.TelegramGroup, model.TelegramGroupDTO](q.Get()))
	}
}

func (s *Server) getSubscriptionsHandler() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		page := max(ctx.QueryInt("page", 1), 1)
		perPage := ctx.QueryInt("per_page", defaultPerPage)

		if perPage < 1 {
			perPage = defaultPerPage
		}

		perPage = min(perPage, maxPerPage)

		filter := func() *database.SubscriptionQuery {
			return s.dbm.SubscriptionQuery().
				Search(ctx.Query("search")).
				Status(model.Status(ctx.Query("status"))).
				Product(uint(max(ctx.QueryInt("product_id"), 0))).
				User(uint(max(ctx.QueryInt("user_id"), 0)))
		}

		total := int(filter().Count())
		pages := (total + perPage - 1) / perPage
		page = min(page, max(pages, 1))

		items := filter().
			Sort(ctx.Query("sort_by", "created_at"), model.SortOrder(strings.ToLower(ctx.Query("sort_order", "desc")))).
			Limit(perPage).
			Offset((page - 1) * perPage).
			Get()

		return ctx.JSON(model.Page[*model.SubscriptionDTO]{
			Items:   model.DTOList[*model.Subscription, model.SubscriptionDTO](items),
			Page:    page,
			PerPage: perPage,
			Total:   total,
			Pages:   pages,
		})
	}
}

func (s *Server) subscribeHandler() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		var req subscribeBody

		if err := s.parse(ctx, &req); err != nil {
			return err
		}

		var expires *time.Time

		if !req.ExpirationDatetime.IsZero() {
			t := req.ExpirationDatetime.Time()
			expires = &t
		}

		sub, err := s.dbm.Subscribe(strings.TrimSpace(req.Email), req.ProductID, expires)
		if err != nil {
			return err
		}

		return ctx.Status(fiber.StatusCreated).JSON(model.SubscribeResult{
			Message:               "Subscription created successfully",
			InviteLink:            sub.InviteLinkURL,
			InviteExpiresAt:       model.NewNullTime(sub.InviteLinkExpiresAt),
			SubscriptionExpiresAt: model.NullTime(sub.SubscriptionExpiresAt),
		})
	}
}

// joinHandler does what the telegram bot does when an invited user joins.
func (s *Server) joinHandler() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		var req joinBody

		if err := s.parse(ctx, &req); err != nil {
			return err
		}

		sub, err := s.dbm.Join(req.Token, req.TelegramUserID, req.TelegramUsername)
		if err != nil {
			return err
		}

		return ctx.JSON(sub.DTO())
	}
}

func (s *Server) cancelHandler() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		id, _ := ctx.ParamsInt("id")

		if err := s.dbm.CancelSubscription(uint(id)); err != nil {
			return err
		}

		return ctx.JSON(model.Message{Message: "Subscription cancelled successfully"})
	}
}

func (s *Server) getUsersHandler() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		return ctx.JSON(model.DTOList[*model.User, model.UserDTO](s.dbm.UserQuery().Get()))
	}
}
