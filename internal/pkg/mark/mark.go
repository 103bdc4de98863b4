// Package mark 알림과 봇 응답에서 사용하는 상태 이모지를 모아 둔 패키지입니다.
package mark

// Mark 상태 이모지
type Mark string

const (
	// 재입고 알림
	InStock Mark = "🟢"

	// 알림 발송됨 (재입고 상태 유지 중)
	Notified Mark = "🔔"

	// 알림 대기 (품절 또는 아직 확인되지 않음)
	Waiting Mark = "🔕"
)

// WithSpace 뒤에 올 문구와 구분되도록 공백을 붙여 반환합니다.
func (m Mark) WithSpace() string {
	if m == "" {
		return ""
	}
	return string(m) + " "
}

func (m Mark) String() string {
	return string(m)
}

// ForNotified 알림 발송 여부에 맞는 마크를 반환합니다.
func ForNotified(notified bool) Mark {
	if notified {
		return Notified
	}
	return Waiting
}
