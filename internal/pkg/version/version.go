// Package version 빌드 시점에 주입된 버전 정보와 실행 환경 정보를 제공합니다.
//
// 릴리스 빌드에서는 다음과 같이 링커 플래그로 값을 주입합니다.
//
//	go build -ldflags "-X github.com/darkkaiser/stock-tracker/internal/pkg/version.appVersion=v1.2.0 \
//	  -X github.com/darkkaiser/stock-tracker/internal/pkg/version.gitCommitHash=$(git rev-parse HEAD)"
//
// 주입된 값이 없으면 debug.ReadBuildInfo의 VCS 메타데이터로 보강합니다.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"sync/atomic"

	applog "github.com/darkkaiser/stock-tracker/pkg/log"
)

const unknown = "unknown"

// 링커 플래그(-ldflags -X)로 주입되는 값입니다. 직접 참조하지 말고 Get()을 사용합니다.
var (
	appVersion    = ""
	gitCommitHash = ""
	gitTreeState  = ""
	buildDate     = ""
	buildNumber   = ""
)

var current atomic.Value

// readBuildInfo 테스트에서 교체할 수 있도록 변수로 둡니다.
var readBuildInfo = debug.ReadBuildInfo

func init() {
	current.Store(resolve(Info{
		Version:     strings.TrimSpace(appVersion),
		Commit:      strings.TrimSpace(gitCommitHash),
		BuildDate:   strings.TrimSpace(buildDate),
		BuildNumber: strings.TrimSpace(buildNumber),
		DirtyBuild:  strings.EqualFold(strings.TrimSpace(gitTreeState), "dirty"),
	}))
}

// Info 빌드 및 실행 환경 정보
type Info struct {
	Version     string `json:"version"`
	Commit      string `json:"commit"`
	BuildDate   string `json:"build_date"`
	BuildNumber string `json:"build_number"`
	GoVersion   string `json:"go_version"`
	OS          string `json:"os"`
	Arch        string `json:"arch"`
	DirtyBuild  bool   `json:"dirty_build"`
}

// Get 현재 프로세스의 빌드 정보를 반환합니다.
func Get() Info {
	if bi, ok := current.Load().(Info); ok {
		return bi
	}
	return Info{Version: unknown, Commit: unknown, BuildDate: unknown}
}

// resolve 비어 있는 항목을 런타임 정보와 VCS 메타데이터로 채웁니다.
func resolve(bi Info) Info {
	if bi.GoVersion == "" {
		bi.GoVersion = runtime.Version()
	}
	if bi.OS == "" {
		bi.OS = runtime.GOOS
	}
	if bi.Arch == "" {
		bi.Arch = runtime.GOARCH
	}

	if meta, ok := readBuildInfo(); ok {
		for _, s := range meta.Settings {
			switch s.Key {
			case "vcs.revision":
				if isUnset(bi.Commit) {
					bi.Commit = s.Value
				}
			case "vcs.time":
				if isUnset(bi.BuildDate) {
					bi.BuildDate = s.Value
				}
			case "vcs.modified":
				if s.Value == "true" {
					bi.DirtyBuild = true
				}
			}
		}

		if bi.Version == "" && meta.Main.Version != "" && meta.Main.Version != "(devel)" {
			bi.Version = meta.Main.Version
		}
	}

	if isUnset(bi.Version) {
		bi.Version = unknown
	}
	if isUnset(bi.Commit) {
		bi.Commit = unknown
	}
	if isUnset(bi.BuildDate) {
		bi.BuildDate = unknown
	}

	return bi
}

func isUnset(s string) bool {
	return s == "" || s == unknown || s == "none"
}

// ShortCommit 커밋 해시의 앞 7자리를 반환합니다.
func (i Info) ShortCommit() string {
	if len(i.Commit) > 7 && i.Commit != unknown {
		return i.Commit[:7]
	}
	return i.Commit
}

// LogFields 시작 로그에 첨부할 필드를 반환합니다.
func (i Info) LogFields() applog.Fields {
	return applog.Fields{
		"version":      i.Version,
		"commit":       i.ShortCommit(),
		"build_date":   i.BuildDate,
		"build_number": i.BuildNumber,
		"go_version":   i.GoVersion,
		"os":           i.OS,
		"arch":         i.Arch,
		"dirty_build":  i.DirtyBuild,
	}
}

// String 예: "v1.2.0+dirty (commit: f25b8bf, build: 42, go1.24.11 linux/amd64)"
func (i Info) String() string {
	v := i.Version
	if v == "" {
		v = unknown
	}
	if i.DirtyBuild {
		v += "+dirty"
	}

	var details []string
	if i.Commit != "" && i.Commit != unknown {
		details = append(details, "commit: "+i.ShortCommit())
	}
	if i.BuildNumber != "" {
		details = append(details, "build: "+i.BuildNumber)
	}
	if i.GoVersion != "" {
		details = append(details, fmt.Sprintf("%s %s/%s", i.GoVersion, i.OS, i.Arch))
	}

	if len(details) == 0 {
		return v
	}
	return fmt.Sprintf("%s (%s)", v, strings.Join(details, ", "))
}
