package scoring

import (
	"regexp"
	"strings"
	"sync"
)

var (
	alnumKeywordRegex = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

	keywordRegexCache   = make(map[string]*regexp.Regexp)
	keywordRegexCacheMu sync.RWMutex
)

// CheckContentRules 按当前纪元的关键词规则判断帖子能否进入候选集。
// exclude 命中即拒绝；include 非空时必须命中其一。
func CheckContentRules(text string, include, exclude []string) bool {
	for _, kw := range exclude {
		if matchKeyword(text, kw) {
			return false
		}
	}

	if len(include) == 0 {
		return true
	}
	for _, kw := range include {
		if matchKeyword(text, kw) {
			return true
		}
	}
	return false
}

// matchKeyword 纯字母数字关键词按词边界匹配（同时覆盖 #标签 形式），
// 带符号的关键词（如 "18+"）退化为子串匹配。
func matchKeyword(text, keyword string) bool {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return false
	}

	if alnumKeywordRegex.MatchString(keyword) {
		return wordBoundaryRegex(keyword).MatchString(text)
	}

	return strings.Contains(strings.ToLower(text), strings.ToLower(keyword))
}

func wordBoundaryRegex(keyword string) *regexp.Regexp {
	key := strings.ToLower(keyword)

	keywordRegexCacheMu.RLock()
	re, ok := keywordRegexCache[key]
	keywordRegexCacheMu.RUnlock()
	if ok {
		return re
	}

	re = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(key) + `\b`)

	keywordRegexCacheMu.Lock()
	keywordRegexCache[key] = re
	keywordRegexCacheMu.Unlock()

	return re
}
