package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jroimartin/gocui"

	"github.com/kdudkov/tgsubs/internal/console"
	"github.com/kdudkov/tgsubs/internal/query"
	"github.com/kdudkov/tgsubs/pkg/model"
)

const (
	subsView     = "subscriptions"
	productsView = "products"
	groupsView   = "groups"
	headerView   = "header"
	footerView   = "footer"
	searchView   = "search"
	confirmView  = "confirm"
	nameView     = "name"
	descrView    = "descr"
	emailView    = "email"
	pickView     = "pick"
)

var (
	screens      = []string{subsView, productsView, groupsView}
	screenTitles = map[string]string{
		subsView:     "Subscriptions",
		productsView: "Products",
		groupsView:   "Telegram groups",
	}
	popups   = []string{searchView, nameView, descrView, emailView, pickView, confirmView}
	perPages = []int{10, 25, 50, 100}
)

type binding struct {
	view string
	key  any
	mod  gocui.Modifier
	f    func(_ *gocui.Gui, _ *gocui.View) error
}

func (app *App) setBindings() error {
	bindings := []binding{
		{"", gocui.KeyCtrlC, gocui.ModNone, app.stop},

		{subsView, '/', gocui.ModNone, app.openSearch},
		{subsView, 's', gocui.ModNone, app.cycleStatus},
		{subsView, 'p', gocui.ModNone, app.cycleProduct},
		{subsView, 'u', gocui.ModNone, app.cycleUser},
		{subsView, 'n', gocui.ModNone, app.cyclePerPage},
		{subsView, 'c', gocui.ModNone, app.cancelSubscription},
		{subsView, gocui.KeyArrowRight, gocui.ModNone, app.nextPage},
		{subsView, gocui.KeyPgdn, gocui.ModNone, app.nextPage},
		{subsView, gocui.KeyArrowLeft, gocui.ModNone, app.prevPage},
		{subsView, gocui.KeyPgup, gocui.ModNone, app.prevPage},

		{searchView, gocui.KeyEnter, gocui.ModNone, app.closeSearch},
		{searchView, gocui.KeyEsc, gocui.ModNone, app.closeSearch},

		{productsView, 'a', gocui.ModNone, app.createProduct},
		{productsView, 'e', gocui.ModNone, app.editProduct},
		{productsView, 'd', gocui.ModNone, app.deleteProduct},
		{productsView, 's', gocui.ModNone, app.openSubscribe},

		{nameView, gocui.KeyTab, gocui.ModNone, app.switchField},
		{nameView, gocui.KeyEnter, gocui.ModNone, app.switchField},
		{descrView, gocui.KeyTab, gocui.ModNone, app.switchField},
		{descrView, gocui.KeyEnter, gocui.ModNone, app.saveProduct},
		{nameView, gocui.KeyCtrlS, gocui.ModNone, app.saveProduct},
		{descrView, gocui.KeyCtrlS, gocui.ModNone, app.saveProduct},
		{nameView, gocui.KeyEsc, gocui.ModNone, app.closeProductForm},
		{descrView, gocui.KeyEsc, gocui.ModNone, app.closeProductForm},

		{emailView, gocui.KeyEnter, gocui.ModNone, app.submitSubscribe},
		{emailView, gocui.KeyEsc, gocui.ModNone, app.closeSubscribe},

		{groupsView, 'u', gocui.ModNone, app.toggleUnmapped},
		{groupsView, 'm', gocui.ModNone, app.openMap},
		{groupsView, 'x', gocui.ModNone, app.unmap},

		{pickView, gocui.KeyArrowUp, gocui.ModNone, app.cursor(-1)},
		{pickView, gocui.KeyArrowDown, gocui.ModNone, app.cursor(1)},
		{pickView, gocui.KeyEnter, gocui.ModNone, app.submitMap},
		{pickView, gocui.KeyEsc, gocui.ModNone, app.closeMap},

		{confirmView, 'y', gocui.ModNone, app.reply(true)},
		{confirmView, 'n', gocui.ModNone, app.reply(false)},
		{confirmView, gocui.KeyEsc, gocui.ModNone, app.reply(false)},
	}

	for _, name := range screens {
		bindings = append(bindings,
			binding{name, gocui.KeyTab, gocui.ModNone, app.nextScreen},
			binding{name, gocui.KeyArrowUp, gocui.ModNone, app.cursor(-1)},
			binding{name, gocui.KeyArrowDown, gocui.ModNone, app.cursor(1)},
			binding{name, 'r', gocui.ModNone, app.reload},
			binding{name, 'q', gocui.ModNone, app.stop},
		)
	}

	for i, col := range query.SortColumns {
		bindings = append(bindings, binding{subsView, rune('1' + i), gocui.ModNone, app.sortBy(col)})
	}

	for _, b := range bindings {
		if err := app.g.SetKeybinding(b.view, b.key, b.mod, b.f); err != nil {
			return err
		}
	}

	return nil
}

func (app *App) layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()

	if v, err := g.SetView(headerView, 0, 0, maxX-1, 4); err != nil {
		if !errors.Is(err, gocui.ErrUnknownView) {
			return err
		}

		v.Frame = true
	}

	for _, name := range screens {
		if v, err := g.SetView(name, 0, 5, maxX-1, maxY-6); err != nil {
			if !errors.Is(err, gocui.ErrUnknownView) {
				return err
			}

			v.Frame = true
			v.Highlight = true
			v.SelBgColor = gocui.ColorWhite
			v.SelFgColor = gocui.ColorBlack
		}
	}

	if v, err := g.SetView(footerView, 0, maxY-5, maxX-1, maxY-1); err != nil {
		if !errors.Is(err, gocui.ErrUnknownView) {
			return err
		}

		v.Frame = true
	}

	if g.CurrentView() == nil {
		if _, err := g.SetCurrentView(app.screen); err != nil {
			return err
		}
	}

	if _, err := g.SetViewOnTop(app.screen); err != nil {
		return err
	}

	for _, name := range popups {
		if _, err := g.View(name); err == nil {
			if _, err := g.SetViewOnTop(name); err != nil {
				return err
			}
		}
	}

	app.draw(g)

	return nil
}

// redraw may be called from any goroutine, the layout renders everything.
func (app *App) redraw() {
	if app.g == nil {
		return
	}

	app.g.Update(func(_ *gocui.Gui) error {
		return nil
	})
}

func (app *App) draw(g *gocui.Gui) {
	snap := app.subs.Snapshot()

	var (
		info  string
		fault string
		help  string
	)

	switch app.screen {
	case subsView:
		info, fault = pagerLine(snap.Pager), snap.Error
		help = "/ search  s status  p product  u user  1-6 sort  n per page  </> page  c cancel  r reload  tab next"
	case productsView:
		ph, msg := app.products.State()
		info, fault = fmt.Sprintf("%d products %s", len(app.products.Items()), phaseMark(ph)), msg

		if f := app.products.Form(); f.Open && f.Error != "" {
			fault = f.Error
		}

		help = "a add  e edit  d delete  s subscribe  r reload  tab next"
	case groupsView:
		ph, msg := app.groups.State()
		info, fault = fmt.Sprintf("%d groups %s", len(app.groups.Groups()), phaseMark(ph)), msg

		if f := app.groups.Form(); f.Open && f.Error != "" {
			fault = f.Error
		}

		help = "u unmapped only  m map  x unmap  r reload  tab next"
	}

	if v, err := g.View(headerView); err == nil {
		v.Clear()
		drawHeader(v, app, snap)
	}

	if v, err := g.View(subsView); err == nil {
		drawSubscriptions(v, snap)
	}

	if v, err := g.View(productsView); err == nil {
		drawProducts(v, app.products)
	}

	if v, err := g.View(groupsView); err == nil {
		drawGroups(v, app.groups)
	}

	if v, err := g.View(pickView); err == nil {
		v.Clear()

		for _, p := range app.groups.UnmappedProducts() {
			fmt.Fprintf(v, "%-4d %s\n", p.ID, p.Name)
		}
	}

	if v, err := g.View(footerView); err == nil {
		v.Clear()
		fmt.Fprintln(v, info)

		switch {
		case fault != "":
			fmt.Fprintln(v, colorize(console.BadgeNegative, fault))
		default:
			fmt.Fprintln(v, app.getMessage())
		}

		fmt.Fprint(v, help)
	}
}

func drawHeader(v *gocui.View, app *App, snap console.SubscriptionsSnapshot) {
	for _, name := range screens {
		if name == app.screen {
			fmt.Fprintf(v, "[%s] ", screenTitles[name])
		} else {
			fmt.Fprintf(v, " %s  ", screenTitles[name])
		}
	}

	fmt.Fprintln(v)

	switch app.screen {
	case subsView:
		q := snap.Query
		fmt.Fprintf(v, "Search: %q  Status: %s  Product: %s  User: %s  Sort: %s %s  Per page: %d\n",
			q.Search, q.Status.Title(), productName(snap.Products, q.ProductID), userEmail(snap.Users, q.UserID),
			q.SortBy, q.SortOrder, q.PerPage)
		fmt.Fprintf(v, "%-5s %-28s %-24s %-16s %-13s %-16s %-16s %s", "ID", "Email", "Telegram", "Product",
			"Status", "Starts", "Expires", "Invite")
	case productsView:
		fmt.Fprintln(v)
		fmt.Fprintf(v, "%-4s %-28s %-24s %s", "ID", "Name", "Telegram group", "Description")
	case groupsView:
		if app.groups.OnlyUnmapped() {
			fmt.Fprintln(v, "Unmapped groups only")
		} else {
			fmt.Fprintln(v, "All groups")
		}

		fmt.Fprintf(v, "%-16s %-28s %-8s %s", "Group ID", "Name", "Active", "Product")
	}
}

func drawSubscriptions(v *gocui.View, snap console.SubscriptionsSnapshot) {
	v.Clear()
	v.Title = screenTitles[subsView] + phaseMark(snap.Phase)

	if len(snap.Items) == 0 && snap.Phase == console.PhaseLoaded {
		fmt.Fprintln(v, "No subscriptions found")
	}

	for _, s := range snap.Items {
		fmt.Fprintf(v, "%-5d %-28.28s %-24.24s %-16.16s %s %-16s %-16s %s\n",
			s.ID, s.Email(), console.TelegramInfo(s.User), s.ProductName(),
			colorize(console.StatusBadge(s.Status), fmt.Sprintf("%-13s", s.Status.Title())),
			console.FormatTime(s.SubscriptionStartsAt), console.FormatTime(s.SubscriptionExpiresAt),
			console.InviteInfo(s))
	}

	clampCursor(v, len(snap.Items))
}

func drawProducts(v *gocui.View, pv *console.ProductsView) {
	ph, _ := pv.State()
	items := pv.Items()

	v.Clear()
	v.Title = screenTitles[productsView] + phaseMark(ph)

	for _, p := range items {
		group := "Not mapped"
		if p.Mapped() {
			group = p.TelegramGroup.TelegramGroupName
		}

		fmt.Fprintf(v, "%-4d %-28.28s %-24.24s %s\n", p.ID, p.Name, group, p.Description)
	}

	clampCursor(v, len(items))
}

func drawGroups(v *gocui.View, gv *console.GroupsView) {
	ph, _ := gv.State()
	groups := gv.Groups()

	v.Clear()
	v.Title = screenTitles[groupsView] + phaseMark(ph)

	for _, g := range groups {
		active := "yes"
		if !g.IsActive {
			active = "no"
		}

		product := "-"
		if g.Mapped() {
			product = g.ProductName()
		}

		fmt.Fprintf(v, "%-16s %-28.28s %-8s %s\n", g.TelegramGroupID, g.TelegramGroupName, active, product)
	}

	clampCursor(v, len(groups))
}

func pagerLine(p console.Pager) string {
	var sb strings.Builder

	sb.WriteString(p.Summary())
	sb.WriteString("   ")

	for _, b := range p.Buttons() {
		switch {
		case b.Disabled:
			continue
		case b.Current:
			fmt.Fprintf(&sb, "[%s] ", b.Label)
		default:
			fmt.Fprintf(&sb, "%s ", b.Label)
		}
	}

	return sb.String()
}

func phaseMark(p console.Phase) string {
	switch p {
	case console.PhaseLoading:
		return " (loading)"
	case console.PhaseError:
		return " (error)"
	default:
		return ""
	}
}

func colorize(b console.Badge, s string) string {
	var code int

	switch b {
	case console.BadgePositive:
		code = 32
	case console.BadgeCautionary:
		code = 33
	case console.BadgeNegative:
		code = 31
	default:
		return s
	}

	return fmt.Sprintf("\033[%dm%s\033[0m", code, s)
}

func productName(products []*model.ProductDTO, id uint) string {
	if id == 0 {
		return "All Products"
	}

	for _, p := range products {
		if p.ID == id {
			return p.Name
		}
	}

	return fmt.Sprintf("#%d", id)
}

func userEmail(users []*model.UserDTO, id uint) string {
	if id == 0 {
		return "All Users"
	}

	for _, u := range users {
		if u.ID == id {
			return u.Email
		}
	}

	return fmt.Sprintf("#%d", id)
}

// clampCursor keeps the cursor on an existing row after the list shrank.
func clampCursor(v *gocui.View, n int) {
	_, oy := v.Origin()
	_, cy := v.Cursor()

	if n == 0 {
		_ = v.SetOrigin(0, 0)
		_ = v.SetCursor(0, 0)

		return
	}

	if oy >= n {
		oy = n - 1
		_ = v.SetOrigin(0, oy)
	}

	if oy+cy >= n {
		_ = v.SetCursor(0, n-1-oy)
	}
}

func selected(v *gocui.View) int {
	_, oy := v.Origin()
	_, cy := v.Cursor()

	return oy + cy
}

func viewText(g *gocui.Gui, name string) string {
	v, err := g.View(name)
	if err != nil {
		return ""
	}

	return strings.TrimSpace(v.Buffer())
}

func (app *App) rows(name string) int {
	switch name {
	case subsView:
		return len(app.subs.Snapshot().Items)
	case productsView:
		return len(app.products.Items())
	case groupsView:
		return len(app.groups.Groups())
	case pickView:
		return len(app.groups.UnmappedProducts())
	default:
		return 0
	}
}

func (app *App) cursor(dy int) func(_ *gocui.Gui, v *gocui.View) error {
	return func(_ *gocui.Gui, v *gocui.View) error {
		if i := selected(v) + dy; i < 0 || i >= app.rows(v.Name()) {
			return nil
		}

		v.MoveCursor(0, dy, false)

		if v.Name() == subsView {
			_, oy := v.Origin()
			app.offset.Store(int64(oy))
		}

		return nil
	}
}

// Offset and Restore let the subscriptions view keep the scroll position
// across reloads.
func (app *App) Offset() int {
	return int(app.offset.Load())
}

func (app *App) Restore(offset int) {
	app.offset.Store(int64(offset))

	app.g.Update(func(g *gocui.Gui) error {
		if v, err := g.View(subsView); err == nil {
			_ = v.SetOrigin(0, offset)
		}

		return nil
	})
}

func (app *App) popup(name, title string, w, h int, editable bool) (*gocui.View, error) {
	maxX, maxY := app.g.Size()
	x0, y0 := max(0, (maxX-w)/2), max(0, (maxY-h)/2)

	v, err := app.g.SetView(name, x0, y0, x0+w, y0+h)
	if err != nil && !errors.Is(err, gocui.ErrUnknownView) {
		return nil, err
	}

	v.Title = title
	v.Editable = editable
	app.g.Cursor = editable

	if _, err := app.g.SetCurrentView(name); err != nil {
		return nil, err
	}

	return v, nil
}

func (app *App) closePopup(names ...string) error {
	for _, name := range names {
		if err := app.g.DeleteView(name); err != nil && !errors.Is(err, gocui.ErrUnknownView) {
			return err
		}
	}

	app.g.Cursor = false
	_, err := app.g.SetCurrentView(app.screen)

	return err
}

// confirm shows a yes/no dialog and waits for the answer. It must not be
// called on the ui goroutine.
func (app *App) confirm(prompt string) bool {
	ch := make(chan bool, 1)

	app.mx.Lock()
	app.pending = ch
	app.mx.Unlock()

	app.g.Update(func(_ *gocui.Gui) error {
		v, err := app.popup(confirmView, "Confirm", len(prompt)+4, 3, false)
		if err != nil {
			return err
		}

		v.Clear()
		fmt.Fprintf(v, " %s\n [y]es / [n]o", prompt)

		return nil
	})

	select {
	case ok := <-ch:
		return ok
	case <-app.ctx.Done():
		return false
	}
}

func (app *App) reply(yes bool) func(_ *gocui.Gui, _ *gocui.View) error {
	return func(_ *gocui.Gui, _ *gocui.View) error {
		app.mx.Lock()
		ch := app.pending
		app.pending = nil
		app.mx.Unlock()

		if ch != nil {
			ch <- yes
		}

		return app.closePopup(confirmView)
	}
}

func (app *App) nextScreen(g *gocui.Gui, _ *gocui.View) error {
	for i, name := range screens {
		if name == app.screen {
			app.screen = screens[(i+1)%len(screens)]
			break
		}
	}

	app.setMessage("")

	if _, err := g.SetCurrentView(app.screen); err != nil {
		return err
	}

	return app.reload(g, nil)
}

func (app *App) reload(_ *gocui.Gui, _ *gocui.View) error {
	switch app.screen {
	case subsView:
		app.subs.Refresh()
	case productsView:
		app.background(func() error { return app.products.Load(app.ctx) })
	case groupsView:
		app.background(func() error { return app.groups.Load(app.ctx) })
	}

	return nil
}

func (app *App) openSearch(_ *gocui.Gui, _ *gocui.View) error {
	search := app.subs.Snapshot().Query.Search

	v, err := app.popup(searchView, "Search by email, telegram or product", 60, 2, true)
	if err != nil {
		return err
	}

	v.Editor = gocui.EditorFunc(app.searchEdit)
	v.Clear()
	fmt.Fprint(v, search)

	return v.SetCursor(len([]rune(search)), 0)
}

// searchEdit applies the search on every keystroke, the view debounces fetches.
func (app *App) searchEdit(v *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) {
	gocui.DefaultEditor.Edit(v, key, ch, mod)
	app.subs.SetSearch(strings.TrimSpace(v.Buffer()))
}

func (app *App) closeSearch(_ *gocui.Gui, _ *gocui.View) error {
	return app.closePopup(searchView)
}

func (app *App) cycleStatus(_ *gocui.Gui, _ *gocui.View) error {
	cur := app.subs.Snapshot().Query.Status
	list := append([]model.Status{""}, model.Statuses()...)

	app.subs.SetStatus(list[(indexOf(list, cur)+1)%len(list)])

	return nil
}

func (app *App) cycleProduct(_ *gocui.Gui, _ *gocui.View) error {
	snap := app.subs.Snapshot()
	ids := []uint{0}

	for _, p := range snap.Products {
		ids = append(ids, p.ID)
	}

	app.subs.SetProductID(ids[(indexOf(ids, snap.Query.ProductID)+1)%len(ids)])

	return nil
}

func (app *App) cycleUser(_ *gocui.Gui, _ *gocui.View) error {
	snap := app.subs.Snapshot()
	ids := []uint{0}

	for _, u := range snap.Users {
		ids = append(ids, u.ID)
	}

	app.subs.SetUserID(ids[(indexOf(ids, snap.Query.UserID)+1)%len(ids)])

	return nil
}

func (app *App) cyclePerPage(_ *gocui.Gui, _ *gocui.View) error {
	cur := app.subs.Snapshot().Query.PerPage
	app.subs.SetPerPage(perPages[(indexOf(perPages, cur)+1)%len(perPages)])

	return nil
}

func indexOf[T comparable](l []T, v T) int {
	for i, x := range l {
		if x == v {
			return i
		}
	}

	return -1
}

func (app *App) sortBy(col string) func(_ *gocui.Gui, _ *gocui.View) error {
	return func(_ *gocui.Gui, _ *gocui.View) error {
		app.subs.SortBy(col)
		return nil
	}
}

func (app *App) nextPage(_ *gocui.Gui, _ *gocui.View) error {
	app.subs.NextPage()
	return nil
}

func (app *App) prevPage(_ *gocui.Gui, _ *gocui.View) error {
	app.subs.PrevPage()
	return nil
}

func (app *App) cancelSubscription(_ *gocui.Gui, v *gocui.View) error {
	items := app.subs.Snapshot().Items

	i := selected(v)
	if i >= len(items) {
		return nil
	}

	id := items[i].ID

	app.background(func() error {
		err := app.subs.CancelSubscription(app.ctx, id)
		if errors.Is(err, console.ErrNotCancellable) {
			app.setMessage("Subscription is already cancelled")
		}

		return err
	})

	return nil
}

func (app *App) selectedProduct(v *gocui.View) *model.ProductDTO {
	items := app.products.Items()

	if i := selected(v); i < len(items) {
		return items[i]
	}

	return nil
}

func (app *App) createProduct(_ *gocui.Gui, _ *gocui.View) error {
	app.products.OpenCreate()
	return app.openProductForm()
}

func (app *App) editProduct(_ *gocui.Gui, v *gocui.View) error {
	p := app.selectedProduct(v)
	if p == nil {
		return nil
	}

	if err := app.products.OpenEdit(p.ID); err != nil {
		return nil
	}

	return app.openProductForm()
}

func (app *App) openProductForm() error {
	f := app.products.Form()
	maxX, maxY := app.g.Size()
	x0, y0 := max(0, (maxX-60)/2), max(0, (maxY-6)/2)

	title := "New product"
	if f.Editing() {
		title = fmt.Sprintf("Edit product %d", f.ID)
	}

	fields := []struct {
		name, title, val string
	}{
		{nameView, title + ": name", f.Name},
		{descrView, "Description", f.Descr},
	}

	for i, fl := range fields {
		v, err := app.g.SetView(fl.name, x0, y0+i*3, x0+60, y0+i*3+2)
		if err != nil && !errors.Is(err, gocui.ErrUnknownView) {
			return err
		}

		v.Title = fl.title
		v.Editable = true
		v.Clear()
		fmt.Fprint(v, fl.val)

		if err := v.SetCursor(len([]rune(fl.val)), 0); err != nil {
			return err
		}
	}

	app.g.Cursor = true
	_, err := app.g.SetCurrentView(nameView)

	return err
}

func (app *App) switchField(g *gocui.Gui, v *gocui.View) error {
	next := descrView
	if v.Name() == descrView {
		next = nameView
	}

	_, err := g.SetCurrentView(next)

	return err
}

func (app *App) saveProduct(g *gocui.Gui, _ *gocui.View) error {
	app.products.SetFormValues(viewText(g, nameView), viewText(g, descrView))

	app.background(func() error {
		err := app.products.Submit(app.ctx)

		app.g.Update(func(_ *gocui.Gui) error {
			if !app.products.Form().Open {
				return app.closePopup(nameView, descrView)
			}

			return nil
		})

		return err
	})

	return nil
}

func (app *App) closeProductForm(_ *gocui.Gui, _ *gocui.View) error {
	app.products.CloseForm()
	return app.closePopup(nameView, descrView)
}

func (app *App) deleteProduct(_ *gocui.Gui, v *gocui.View) error {
	p := app.selectedProduct(v)
	if p == nil {
		return nil
	}

	app.background(func() error { return app.products.Delete(app.ctx, p.ID) })

	return nil
}

func (app *App) openSubscribe(_ *gocui.Gui, v *gocui.View) error {
	p := app.selectedProduct(v)
	if p == nil {
		return nil
	}

	app.background(func() error {
		if err := app.subscribe.Load(app.ctx, p.ID); err != nil {
			_, msg := app.subscribe.State()
			app.setMessage(msg)

			return err
		}

		app.g.Update(func(_ *gocui.Gui) error {
			v, err := app.popup(emailView, fmt.Sprintf("Subscribe to %s: email [expiration]", app.subscribe.Product().Name), 60, 2, true)
			if err != nil {
				return err
			}

			v.Clear()

			return nil
		})

		return nil
	})

	return nil
}

func (app *App) submitSubscribe(g *gocui.Gui, _ *gocui.View) error {
	fields := strings.Fields(viewText(g, emailView))

	var (
		email string
		exp   *time.Time
	)

	if len(fields) > 0 {
		email = fields[0]
	}

	if len(fields) > 1 {
		t, err := model.ParseTime(strings.Join(fields[1:], " "))
		if err != nil {
			app.setMessage("Invalid expiration date")
			return nil
		}

		exp = &t
	}

	app.setMessage("")

	if err := app.closePopup(emailView); err != nil {
		return err
	}

	app.background(func() error {
		res, err := app.subscribe.Submit(app.ctx, email, exp)
		if err != nil {
			_, msg := app.subscribe.State()
			app.setMessage(msg)

			return err
		}

		app.setMessage(fmt.Sprintf("%s: %s (expires %s)", res.Message, res.InviteLink, console.FormatTime(res.SubscriptionExpiresAt)))
		app.subs.Refresh()

		return nil
	})

	return nil
}

func (app *App) closeSubscribe(_ *gocui.Gui, _ *gocui.View) error {
	return app.closePopup(emailView)
}

func (app *App) selectedGroup(v *gocui.View) *model.TelegramGroupDTO {
	groups := app.groups.Groups()

	if i := selected(v); i < len(groups) {
		return groups[i]
	}

	return nil
}

func (app *App) toggleUnmapped(_ *gocui.Gui, _ *gocui.View) error {
	app.background(func() error { return app.groups.ToggleUnmapped(app.ctx) })
	return nil
}

func (app *App) openMap(_ *gocui.Gui, v *gocui.View) error {
	g := app.selectedGroup(v)
	if g == nil {
		return nil
	}

	if !app.groups.OpenMap(g.ID) {
		app.setMessage("Inactive groups can't be mapped")
		return nil
	}

	products := app.groups.UnmappedProducts()
	if len(products) == 0 {
		app.groups.CloseMap()
		app.setMessage("No unmapped products")

		return nil
	}

	pv, err := app.popup(pickView, "Map "+g.TelegramGroupName+" to", 50, len(products)+1, false)
	if err != nil {
		return err
	}

	pv.Highlight = true
	pv.SelBgColor = gocui.ColorWhite
	pv.SelFgColor = gocui.ColorBlack

	return nil
}

func (app *App) submitMap(_ *gocui.Gui, v *gocui.View) error {
	products := app.groups.UnmappedProducts()

	if i := selected(v); i < len(products) {
		app.groups.SelectProduct(products[i].ID)
	}

	app.background(func() error {
		err := app.groups.SubmitMap(app.ctx)

		app.g.Update(func(_ *gocui.Gui) error {
			if !app.groups.Form().Open {
				return app.closePopup(pickView)
			}

			return nil
		})

		return err
	})

	return nil
}

func (app *App) closeMap(_ *gocui.Gui, _ *gocui.View) error {
	app.groups.CloseMap()
	return app.closePopup(pickView)
}

func (app *App) unmap(_ *gocui.Gui, v *gocui.View) error {
	g := app.selectedGroup(v)
	if g == nil || !g.Mapped() {
		return nil
	}

	id := *g.ProductID

	app.background(func() error { return app.groups.Unmap(app.ctx, id) })

	return nil
}
