package log

// callerPathPrefix 호출 위치 출력 시 생략할 모듈 경로입니다.
const callerPathPrefix = "github.com/darkkaiser/stock-tracker"

// NewProductionOptions 데몬 모드(운영 환경)에 맞춘 로그 설정을 반환합니다.
func NewProductionOptions(appName string) Options {
	return Options{
		Name:  appName,
		Level: InfoLevel,

		MaxAge:     30,
		MaxSizeMB:  100,
		MaxBackups: 20,

		EnableCriticalLog: true,
		EnableVerboseLog:  true,
		EnableConsoleLog:  false,

		ReportCaller:     true,
		CallerPathPrefix: callerPathPrefix,
	}
}

// NewDevelopmentOptions 개발 환경 및 단일 실행(RUN_ONCE) 모드에 맞춘 로그 설정을 반환합니다.
// 콘솔 출력이 켜져 있어 CI 로그에서 바로 결과를 확인할 수 있습니다.
func NewDevelopmentOptions(appName string) Options {
	return Options{
		Name:  appName,
		Level: TraceLevel,

		MaxAge:     1,
		MaxSizeMB:  50,
		MaxBackups: 5,

		EnableCriticalLog: false,
		EnableVerboseLog:  false,
		EnableConsoleLog:  true,

		ReportCaller:     true,
		CallerPathPrefix: callerPathPrefix,
	}
}
