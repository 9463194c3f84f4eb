package model

type Status string

const (
	StatusPendingJoin Status = "pending_join"
	StatusActive      Status = "active"
	StatusExpired     Status = "expired"
	StatusCancelled   Status = "cancelled"
)

func Statuses() []Status {
	return []Status{StatusActive, StatusPendingJoin, StatusExpired, StatusCancelled}
}

func (s Status) Valid() bool {
	switch s {
	case StatusPendingJoin, StatusActive, StatusExpired, StatusCancelled:
		return true
	default:
		return false
	}
}

func (s Status) Title() string {
	switch s {
	case StatusPendingJoin:
		return "Pending Join"
	case StatusActive:
		return "Active"
	case StatusExpired:
		return "Expired"
	case StatusCancelled:
		return "Cancelled"
	case "":
		return "All Statuses"
	default:
		return string(s)
	}
}
