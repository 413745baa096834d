package request

import (
	"fmt"

	"github.com/AlexYAT/vedic-astrologer-bot/pkg/errs"
)

// Type classifies an assistant interaction. The set is closed but
// externally defined; the store validates membership and assigns no
// semantics beyond the label.
type Type string

const (
	TypeToday       Type = "today"
	TypeTomorrow    Type = "tomorrow"
	TypeCheckAction Type = "check_action"
	TypeFavorable   Type = "favorable"
	TypeTopic       Type = "topic"
	TypeSetData     Type = "setdata"
)

// IsValid reports whether t belongs to the known set.
func (t Type) IsValid() bool {
	switch t {
	case TypeToday, TypeTomorrow, TypeCheckAction, TypeFavorable, TypeTopic, TypeSetData:
		return true
	}
	return false
}

// Validate checks the record before insertion.
func (r *Request) Validate() error {
	if r.UserID == 0 {
		return fmt.Errorf("request log: user_id is required")
	}
	if !r.Type.IsValid() {
		return fmt.Errorf("%w: %q", errs.ErrInvalidRequestType, r.Type)
	}
	if r.ResponseTimeMs < 0 {
		return fmt.Errorf("request log: negative response time %d", r.ResponseTimeMs)
	}
	return nil
}
