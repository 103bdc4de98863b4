// Package state 추출 결과와 현재 알림 여부로 다음 동작을 결정하는 알림 상태 머신입니다.
package state

import "github.com/darkkaiser/stock-tracker/internal/service/tracker/extractor"

// Action 상품 하나에 대해 수행할 동작
type Action int

const (
	// ActionNone 아무것도 하지 않습니다.
	ActionNone Action = iota

	// ActionNotify 알림을 전송하고, 성공한 경우에만 notified를 true로 바꿉니다.
	ActionNotify

	// ActionReset notified를 false로 되돌립니다. 알림은 보내지 않습니다.
	ActionReset
)

var actionNames = [...]string{
	ActionNone:   "none",
	ActionNotify: "notify",
	ActionReset:  "reset",
}

func (a Action) String() string {
	if a >= 0 && int(a) < len(actionNames) {
		return actionNames[a]
	}
	return "unknown"
}

// Decide 결과가 없으면(nil) 상태를 바꾸지 않습니다.
//
//	Available   + !notified -> ActionNotify
//	Unavailable +  notified -> ActionReset
//	그 외                    -> ActionNone
func Decide(result *extractor.Result, notified bool) Action {
	if result == nil {
		return ActionNone
	}

	switch {
	case result.Availability == extractor.Available && !notified:
		return ActionNotify
	case result.Availability == extractor.Unavailable && notified:
		return ActionReset
	default:
		return ActionNone
	}
}
