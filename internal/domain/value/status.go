package value

type DealStatus string

const (
	DealStatusDetected  DealStatus = "detected"
	DealStatusValidated DealStatus = "validated"
	DealStatusPublished DealStatus = "published"
	DealStatusExpired   DealStatus = "expired"
	DealStatusCanceled  DealStatus = "canceled"
)

//nolint:gochecknoglobals
var dealStatusOrder = map[DealStatus]int{
	DealStatusDetected:  0,
	DealStatusValidated: 1,
	DealStatusPublished: 2,
	DealStatusExpired:   3,
	DealStatusCanceled:  3,
}

// CanTransitionTo reports whether the lifecycle may move from s to next.
// Only forward moves are allowed; expired and canceled are terminal.
func (s DealStatus) CanTransitionTo(next DealStatus) bool {
	switch s {
	case DealStatusDetected:
		return next == DealStatusValidated
	case DealStatusValidated:
		return next == DealStatusPublished
	case DealStatusPublished:
		return next == DealStatusExpired || next == DealStatusCanceled
	default:
		return false
	}
}

func (s DealStatus) IsTerminal() bool {
	return s == DealStatusExpired || s == DealStatusCanceled
}

func (s DealStatus) IsValid() bool {
	_, ok := dealStatusOrder[s]
	return ok
}
