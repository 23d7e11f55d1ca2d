package counter

import (
	"strconv"
	"strings"
)

// 链上程序输出的日志格式: "Program log: Count: <n>"
const logPrefix = "Program log: Count: "

// ParseLoggedCounter 从交易日志中找出程序打印的计数器值
func ParseLoggedCounter(logs []string) (uint64, bool) {
	for _, line := range logs {
		rest, ok := strings.CutPrefix(line, logPrefix)
		if !ok {
			continue
		}
		v, err := strconv.ParseUint(strings.TrimSpace(rest), 10, 64)
		if err != nil {
			continue
		}
		return v, true
	}
	return 0, false
}
