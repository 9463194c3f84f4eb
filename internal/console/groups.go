package console

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/kdudkov/tgsubs/pkg/model"
)

const (
	msgSelectProduct = "Please select a product"
	msgMapFailed     = "Failed to map product. Please try again."
	msgUnmapFailed   = "Failed to unmap product. Please try again."
)

// MapForm is the state of the "map group to product" modal.
type MapForm struct {
	Open      bool
	Group     *model.TelegramGroupDTO
	ProductID uint
	Error     string
}

// GroupsView lists telegram groups and maps them to products.
type GroupsView struct {
	api    Backend
	logger *zap.SugaredLogger

	mx           sync.Mutex
	phase        Phase
	errMsg       string
	onlyUnmapped bool
	groups       []*model.TelegramGroupDTO
	products     []*model.ProductDTO
	form         MapForm
	confirm      Confirmer
}

func NewGroupsView(api Backend, logger *zap.SugaredLogger) *GroupsView {
	return &GroupsView{api: api, logger: logger.Named("groups")}
}

func (v *GroupsView) SetConfirmer(c Confirmer) {
	v.mx.Lock()
	defer v.mx.Unlock()

	v.confirm = c
}

func (v *GroupsView) Load(ctx context.Context) error {
	v.mx.Lock()
	v.phase = PhaseLoading
	only := v.onlyUnmapped
	v.mx.Unlock()

	var (
		groups []*model.TelegramGroupDTO
		err    error
	)

	if only {
		groups, err = v.api.GetUnmappedGroups(ctx)
	} else {
		groups, err = v.api.GetGroups(ctx)
	}

	var products []*model.ProductDTO

	if err == nil {
		products, err = v.api.GetProducts(ctx)
	}

	v.mx.Lock()
	defer v.mx.Unlock()

	if err != nil {
		v.logger.Errorf("load groups: %s", err.Error())
		v.phase = PhaseError
		v.errMsg = msgLoadFailed

		return fmt.Errorf("load groups: %w", err)
	}

	v.groups = groups
	v.products = products
	v.phase = PhaseLoaded
	v.errMsg = ""

	return nil
}

// ToggleUnmapped switches between all groups and unmapped ones and reloads.
func (v *GroupsView) ToggleUnmapped(ctx context.Context) error {
	v.mx.Lock()
	v.onlyUnmapped = !v.onlyUnmapped
	v.mx.Unlock()

	return v.Load(ctx)
}

func (v *GroupsView) OnlyUnmapped() bool {
	v.mx.Lock()
	defer v.mx.Unlock()

	return v.onlyUnmapped
}

func (v *GroupsView) Groups() []*model.TelegramGroupDTO {
	v.mx.Lock()
	defer v.mx.Unlock()

	return v.groups
}

func (v *GroupsView) State() (Phase, string) {
	v.mx.Lock()
	defer v.mx.Unlock()

	return v.phase, v.errMsg
}

func (v *GroupsView) Form() MapForm {
	v.mx.Lock()
	defer v.mx.Unlock()

	return v.form
}

// UnmappedProducts returns products that have no group yet.
func (v *GroupsView) UnmappedProducts() []*model.ProductDTO {
	v.mx.Lock()
	defer v.mx.Unlock()

	res := make([]*model.ProductDTO, 0, len(v.products))

	for _, p := range v.products {
		if p != nil && !p.Mapped() {
			res = append(res, p)
		}
	}

	return res
}

// OpenMap opens the map modal. Inactive groups can't be mapped.
func (v *GroupsView) OpenMap(groupID uint) bool {
	v.mx.Lock()
	defer v.mx.Unlock()

	for _, g := range v.groups {
		if g != nil && g.ID == groupID {
			if !g.IsActive {
				return false
			}

			v.form = MapForm{Open: true, Group: g}

			return true
		}
	}

	return false
}

func (v *GroupsView) SelectProduct(id uint) {
	v.mx.Lock()
	defer v.mx.Unlock()

	v.form.ProductID = id
	v.form.Error = ""
}

func (v *GroupsView) CloseMap() {
	v.mx.Lock()
	defer v.mx.Unlock()

	v.form = MapForm{}
}

// SubmitMap maps the selected product to the group of the open form.
func (v *GroupsView) SubmitMap(ctx context.Context) error {
	v.mx.Lock()
	form := v.form
	v.mx.Unlock()

	if !form.Open || form.Group == nil {
		return nil
	}

	if form.ProductID == 0 {
		v.formError(msgSelectProduct)
		return fmt.Errorf("%w: no product", ErrValidation)
	}

	req := &model.MapRequest{
		TelegramGroupID:   strings.TrimSpace(form.Group.TelegramGroupID),
		TelegramGroupName: form.Group.TelegramGroupName,
	}

	if err := validateStruct(req); err != nil {
		v.formError(userMessage(err, msgMapFailed))
		return err
	}

	if _, err := v.api.MapProduct(ctx, form.ProductID, req); err != nil {
		v.logger.Errorf("map product %d: %s", form.ProductID, err.Error())
		v.formError(userMessage(err, msgMapFailed))

		return fmt.Errorf("map product %d: %w", form.ProductID, err)
	}

	v.CloseMap()

	return v.Load(ctx)
}

// Unmap removes the group mapping of the product after confirmation.
func (v *GroupsView) Unmap(ctx context.Context, productID uint) error {
	v.mx.Lock()
	confirm := v.confirm
	v.mx.Unlock()

	if !confirmed(confirm, "Unmap this product from its group?") {
		return nil
	}

	if err := v.api.UnmapProduct(ctx, productID); err != nil {
		v.logger.Errorf("unmap product %d: %s", productID, err.Error())

		v.mx.Lock()
		v.errMsg = userMessage(err, msgUnmapFailed)
		v.mx.Unlock()

		return fmt.Errorf("unmap product %d: %w", productID, err)
	}

	return v.Load(ctx)
}

func (v *GroupsView) formError(msg string) {
	v.mx.Lock()
	defer v.mx.Unlock()

	v.form.Error = msg
}
