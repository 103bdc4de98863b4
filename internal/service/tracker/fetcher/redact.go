package fetcher

import (
	"net/url"
	"slices"
	"strings"
)

var (
	sensitiveExactKeys = []string{
		"token", "auth", "key", "secret", "pass", "password", "passwd", "signature",
		"access_token", "api_key", "client_secret", "refresh_token", "session", "sid",
	}

	sensitiveSuffixes = []string{"_token", "_secret", "_key", "_sig", "_password"}
)

// redactURL 로그에 남길 수 있도록 URL의 비밀번호와 민감한 쿼리 값을 가립니다.
func redactURL(u *url.URL) string {
	if u == nil {
		return ""
	}

	clone := *u
	if clone.User != nil {
		if _, hasPassword := clone.User.Password(); hasPassword {
			clone.User = url.UserPassword(clone.User.Username(), "xxxxx")
		}
	}

	if clone.RawQuery != "" {
		q := clone.Query()
		changed := false
		for k := range q {
			if isSensitiveKey(k) {
				q.Set(k, "xxxxx")
				changed = true
			}
		}
		if changed {
			clone.RawQuery = q.Encode()
		}
	}

	return clone.String()
}

func isSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	if slices.Contains(sensitiveExactKeys, k) {
		return true
	}
	for _, suffix := range sensitiveSuffixes {
		if strings.HasSuffix(k, suffix) {
			return true
		}
	}
	return false
}
