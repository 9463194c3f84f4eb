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
	msgSaveProductFailed   = "Failed to save product. Please try again."
	msgDeleteProductFailed = "Failed to delete product. Please try again."
)

// ProductForm is the state of the create/edit modal.
type ProductForm struct {
	Open  bool
	ID    uint
	Name  string
	Descr string
	Error string
}

func (f ProductForm) Editing() bool {
	return f.ID != 0
}

type ProductsView struct {
	api    Backend
	logger *zap.SugaredLogger

	mx      sync.Mutex
	phase   Phase
	errMsg  string
	items   []*model.ProductDTO
	form    ProductForm
	confirm Confirmer
}

func NewProductsView(api Backend, logger *zap.SugaredLogger) *ProductsView {
	return &ProductsView{api: api, logger: logger.Named("products")}
}

func (v *ProductsView) SetConfirmer(c Confirmer) {
	v.mx.Lock()
	defer v.mx.Unlock()

	v.confirm = c
}

func (v *ProductsView) Load(ctx context.Context) error {
	v.setPhase(PhaseLoading, "")

	items, err := v.api.GetProducts(ctx)
	if err != nil {
		v.logger.Errorf("load products: %s", err.Error())
		v.setPhase(PhaseError, msgLoadFailed)

		return fmt.Errorf("load products: %w", err)
	}

	v.mx.Lock()
	v.items = items
	v.phase = PhaseLoaded
	v.errMsg = ""
	v.mx.Unlock()

	return nil
}

func (v *ProductsView) Items() []*model.ProductDTO {
	v.mx.Lock()
	defer v.mx.Unlock()

	return v.items
}

func (v *ProductsView) State() (Phase, string) {
	v.mx.Lock()
	defer v.mx.Unlock()

	return v.phase, v.errMsg
}

func (v *ProductsView) Form() ProductForm {
	v.mx.Lock()
	defer v.mx.Unlock()

	return v.form
}

// OpenCreate opens an empty form.
func (v *ProductsView) OpenCreate() {
	v.mx.Lock()
	defer v.mx.Unlock()

	v.form = ProductForm{Open: true}
}

// OpenEdit opens the form filled with the product's current values.
func (v *ProductsView) OpenEdit(id uint) error {
	v.mx.Lock()
	defer v.mx.Unlock()

	for _, p := range v.items {
		if p != nil && p.ID == id {
			v.form = ProductForm{Open: true, ID: p.ID, Name: p.Name, Descr: p.Description}
			return nil
		}
	}

	return fmt.Errorf("product %d: %w", id, ErrNotFound)
}

func (v *ProductsView) SetFormValues(name, descr string) {
	v.mx.Lock()
	defer v.mx.Unlock()

	v.form.Name = name
	v.form.Descr = descr
}

func (v *ProductsView) CloseForm() {
	v.mx.Lock()
	defer v.mx.Unlock()

	v.form = ProductForm{}
}

// Submit creates or updates the product. On failure the form stays open
// with the error message.
func (v *ProductsView) Submit(ctx context.Context) error {
	v.mx.Lock()
	form := v.form
	v.mx.Unlock()

	if !form.Open {
		return nil
	}

	req := &model.ProductRequest{Name: strings.TrimSpace(form.Name), Description: strings.TrimSpace(form.Descr)}

	if err := validateStruct(req); err != nil {
		v.formError(userMessage(err, msgSaveProductFailed))
		return err
	}

	var err error

	if form.Editing() {
		_, err = v.api.UpdateProduct(ctx, form.ID, req)
	} else {
		_, err = v.api.CreateProduct(ctx, req)
	}

	if err != nil {
		v.logger.Errorf("save product: %s", err.Error())
		v.formError(userMessage(err, msgSaveProductFailed))

		return fmt.Errorf("save product: %w", err)
	}

	v.CloseForm()

	return v.Load(ctx)
}

// Delete removes the product after confirmation.
func (v *ProductsView) Delete(ctx context.Context, id uint) error {
	v.mx.Lock()
	confirm := v.confirm
	var name string

	for _, p := range v.items {
		if p != nil && p.ID == id {
			name = p.Name
		}
	}
	v.mx.Unlock()

	if name == "" {
		return fmt.Errorf("product %d: %w", id, ErrNotFound)
	}

	if !confirmed(confirm, fmt.Sprintf("Delete product %s?", name)) {
		return nil
	}

	if err := v.api.DeleteProduct(ctx, id); err != nil {
		v.logger.Errorf("delete product %d: %s", id, err.Error())
		v.setPhase(PhaseLoaded, userMessage(err, msgDeleteProductFailed))

		return fmt.Errorf("delete product %d: %w", id, err)
	}

	return v.Load(ctx)
}

func (v *ProductsView) setPhase(p Phase, msg string) {
	v.mx.Lock()
	defer v.mx.Unlock()

	v.phase = p
	v.errMsg = msg
}

func (v *ProductsView) formError(msg string) {
	v.mx.Lock()
	defer v.mx.Unlock()

	v.form.Error = msg
}
