package signlog

import (
	"os"

	logging "github.com/ipfs/go-log/v2"
)

// quiet 调用频繁的子系统，INFO 级别下只输出警告
var quiet = []string{"rpc", "vapi"}

// SetupLogLevels 初始化日志等级
// 未设置 GOLOG_LOG_LEVEL 时全局为 INFO
func SetupLogLevels() {
	if _, set := os.LookupEnv("GOLOG_LOG_LEVEL"); !set {
		_ = logging.SetLogLevel("*", "INFO")
		for _, sub := range quiet {
			_ = logging.SetLogLevel(sub, "WARN")
		}
	}
}

// SetDebug 所有子系统切换到 DEBUG
func SetDebug() {
	logging.SetAllLoggers(logging.LevelDebug)
}
