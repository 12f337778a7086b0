package utils

import "time"

type HTTPClientConfig struct {
	Timeout       time.Duration
	KATimeout     time.Duration
	ProxyURL      string
	ProxyUsername string
	ProxyPassword string
	UserAgent     string
	Headers       map[string]string
}

// RunConfig is everything one pipeline run needs, assembled by the cmd layer
// from defaults, the config file and flags.
type RunConfig struct {
	Endpoint         string
	MetaEndpoint     string
	OutputDir        string
	Prefix           string
	S3Destination    string
	S3Profile        string
	HTTPClientConfig HTTPClientConfig
}
