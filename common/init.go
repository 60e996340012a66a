package common

import (
	"flag"

	"github.com/Laisky/zap"

	"github.com/fuchsia74/bedrock-relay/common/config"
	"github.com/fuchsia74/bedrock-relay/common/logger"
)

var (
	host       = flag.String("host", "", "the listening address, overrides HOST")
	port       = flag.Int("port", 0, "the listening port, overrides PORT")
	region     = flag.String("region", "", "the AWS region, overrides AWS_REGION")
	apiKey     = flag.String("api-key", "", "the northbound API key, overrides API_KEY")
	logLevel   = flag.String("log-level", "", "log verbosity, overrides LOG_LEVEL")
	configFile = flag.String("config", "", "path to an optional JSON config file")
)

// Init parses CLI flags and merges configuration. Precedence is
// flags > environment > config file; the file only fills values the
// environment left unset.
func Init() {
	flag.Parse()

	if *configFile != "" {
		if err := config.ApplyFile(*configFile); err != nil {
			logger.Logger.Fatal("failed to load config file", zap.Error(err))
		}
	}

	if *host != "" {
		config.Host = *host
	}
	if *port != 0 {
		config.Port = *port
	}
	if *region != "" {
		config.AWSRegion = *region
	}
	if *apiKey != "" {
		config.APIKey = *apiKey
	}
	if *logLevel != "" {
		config.LogLevel = *logLevel
	}
}
