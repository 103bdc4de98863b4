// Package service 장기 실행 서비스(스케줄러, 명령 봇)가 공통으로 따르는 생명주기 인터페이스를 정의합니다.
package service

import (
	"context"
	"sync"
)

// Service serviceStopCtx가 취소되면 정리를 마친 뒤 serviceStopWG.Done()을 호출해야 합니다.
// Start가 에러를 반환하는 경우에도 Done()은 호출되어야 합니다.
type Service interface {
	Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error
}
