// Package testutil 여러 패키지의 테스트에서 함께 사용하는 도우미 함수입니다.
package testutil

import (
	"fmt"
	"net"
	"time"
)

// GetFreePort 테스트 서버에 사용할 수 있는 임의의 포트를 반환합니다.
func GetFreePort() (int, error) {
	l, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()

	return l.Addr().(*net.TCPAddr).Port, nil
}

// WaitForServer 서버가 포트에서 연결을 받을 때까지 기다립니다.
func WaitForServer(port int, timeout time.Duration) error {
	addr := fmt.Sprintf("localhost:%d", port)
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 100*time.Millisecond)
		if err == nil {
			conn.Close()
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}

	return fmt.Errorf("%s 포트에서 서버가 %v 안에 시작되지 않았습니다", addr, timeout)
}
