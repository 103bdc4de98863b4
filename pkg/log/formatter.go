package log

import "github.com/sirupsen/logrus"

// silentFormatter 아무 것도 출력하지 않는 포맷터입니다.
// logrus는 출력 대상이 io.Discard여도 포맷팅을 수행하므로 표준 로거에는 이 포맷터를 설정합니다.
type silentFormatter struct{}

func (f *silentFormatter) Format(_ *logrus.Entry) ([]byte, error) {
	return nil, nil
}
