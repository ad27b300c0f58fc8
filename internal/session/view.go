package session

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/swiftscan/internal/common"
)

// View is the screen a session is currently on.
type View string

const (
	ViewCamera        View = "CAMERA"
	ViewProcessing    View = "PROCESSING"
	ViewReview        View = "REVIEW"
	ViewHistory       View = "HISTORY"
	ViewHistoryDetail View = "HISTORY_DETAIL"
	ViewSettings      View = "SETTINGS"
)

// ErrInvalidTransition is returned for any move not listed in the transition table.
var ErrInvalidTransition = fmt.Errorf("invalid view transition: %w", common.ErrInvalidInput)

var transitions = map[View][]View{
	ViewCamera:        {ViewProcessing, ViewHistory, ViewSettings},
	ViewProcessing:    {ViewReview, ViewCamera},
	ViewReview:        {ViewCamera},
	ViewHistory:       {ViewHistoryDetail, ViewCamera},
	ViewHistoryDetail: {ViewHistory},
	ViewSettings:      {ViewCamera},
}

// Views lists every view in declaration order.
func Views() []View {
	return []View{ViewCamera, ViewProcessing, ViewReview, ViewHistory, ViewHistoryDetail, ViewSettings}
}

// ParseView accepts a view name in any case.
func ParseView(s string) (View, bool) {
	v := View(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := transitions[v]
	return v, ok
}

// CanTransition reports whether the table allows from -> to.
func CanTransition(from, to View) bool {
	for _, v := range transitions[from] {
		if v == to {
			return true
		}
	}
	return false
}

func checkTransition(from, to View) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}
