package console

import (
	"fmt"
	"strconv"

	"github.com/kdudkov/tgsubs/pkg/model"
)

const (
	timeFormat  = "02-01-2006 15:04"
	placeholder = "-"
	pageWindow  = 5
)

type Badge int

const (
	BadgeNeutral Badge = iota
	BadgePositive
	BadgeCautionary
	BadgeNegative
)

func (b Badge) String() string {
	switch b {
	case BadgePositive:
		return "positive"
	case BadgeCautionary:
		return "cautionary"
	case BadgeNegative:
		return "negative"
	default:
		return "neutral"
	}
}

func StatusBadge(s model.Status) Badge {
	switch s {
	case model.StatusActive:
		return BadgePositive
	case model.StatusPendingJoin:
		return BadgeCautionary
	case model.StatusExpired:
		return BadgeNegative
	default:
		return BadgeNeutral
	}
}

// FormatTime renders a nullable timestamp in local time, "-" when absent.
func FormatTime(t model.NullTime) string {
	if t.IsZero() {
		return placeholder
	}

	return t.Time().Local().Format(timeFormat)
}

func CanCancel(s *model.SubscriptionDTO) bool {
	return s != nil && s.Status != model.StatusCancelled
}

func TelegramInfo(u *model.UserDTO) string {
	if !u.Joined() {
		return "Not joined yet"
	}

	if u.TelegramUsername != "" {
		return fmt.Sprintf("ID: %s @%s", u.TelegramUserID, u.TelegramUsername)
	}

	return "ID: " + u.TelegramUserID
}

func InviteInfo(s *model.SubscriptionDTO) string {
	if s == nil || s.InviteLinkURL == "" {
		return "No link"
	}

	return fmt.Sprintf("%s (Expires: %s)", s.InviteLinkURL, FormatTime(s.InviteLinkExpiresAt))
}

// Pager describes the pagination control under the list.
type Pager struct {
	Page    int
	PerPage int
	Total   int
	Pages   int
}

type PageButton struct {
	Label    string
	Page     int
	Current  bool
	Disabled bool
}

func (p Pager) From() int {
	if p.Total == 0 {
		return 0
	}

	return (p.Page-1)*p.PerPage + 1
}

func (p Pager) To() int {
	return min(p.Page*p.PerPage, p.Total)
}

func (p Pager) Summary() string {
	return fmt.Sprintf("Showing %d to %d of %d entries", p.From(), p.To(), p.Total)
}

// Buttons returns prev, up to five page numbers around the current one, and next.
func (p Pager) Buttons() []PageButton {
	first, last := 1, p.Pages

	if p.Pages > pageWindow {
		first = max(1, p.Page-pageWindow/2)
		last = first + pageWindow - 1

		if last > p.Pages {
			last = p.Pages
			first = last - pageWindow + 1
		}
	}

	res := make([]PageButton, 0, last-first+3)
	res = append(res, PageButton{Label: "Previous", Page: p.Page - 1, Disabled: p.Page <= 1})

	for i := first; i <= last; i++ {
		res = append(res, PageButton{Label: strconv.Itoa(i), Page: i, Current: i == p.Page})
	}

	res = append(res, PageButton{Label: "Next", Page: p.Page + 1, Disabled: p.Page >= p.Pages})

	return res
}
