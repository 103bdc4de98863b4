package fetcher

import (
	"io"
	"sync"
)

// maxDrainBytes 커넥션 재사용을 위해 버리는 Body의 최대 크기 (64KB)
const maxDrainBytes = 64 * 1024

var drainBufPool = sync.Pool{
	New: func() any {
		b := make([]byte, 32*1024)
		return &b
	},
}

// drainAndCloseBody 응답 Body를 일정량 읽어 버린 뒤 닫아 커넥션이 풀에 반환되도록 합니다.
// maxDrainBytes를 넘는 Body를 가진 커넥션은 재사용되지 않습니다.
func drainAndCloseBody(body io.ReadCloser) {
	if body == nil {
		return
	}
	defer body.Close()

	bufPtr := drainBufPool.Get().(*[]byte)
	defer drainBufPool.Put(bufPtr)

	_, _ = io.CopyBuffer(io.Discard, io.LimitReader(body, maxDrainBytes), *bufPtr)
}
