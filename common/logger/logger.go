package logger

import (
	"fmt"
	"sync"

	glog "github.com/Laisky/go-utils/v5/log"

	"github.com/fuchsia74/bedrock-relay/common/config"
)

var (
	Logger      glog.Logger
	initLogOnce sync.Once
)

// init initializes the logger automatically when the package is imported
func init() {
	initLogger()
}

// initLogger initializes the go-utils logger
func initLogger() {
	initLogOnce.Do(func() {
		var err error
		Logger, err = glog.NewConsoleWithName("bedrock-relay", Level())
		if err != nil {
			panic(fmt.Sprintf("failed to create logger: %+v", err))
		}
	})
}

// Level resolves the configured log level. DEBUG=true wins over LOG_LEVEL.
func Level() glog.Level {
	if config.DebugEnabled {
		return glog.LevelDebug
	}
	switch config.LogLevel {
	case "debug":
		return glog.LevelDebug
	case "warn", "warning":
		return glog.LevelWarn
	case "error":
		return glog.LevelError
	default:
		return glog.LevelInfo
	}
}
