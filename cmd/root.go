package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sorazip/sorazip/internal/config"
	"github.com/sorazip/sorazip/internal/utils"
	"github.com/spf13/cobra"
)

var (
	configPath    string
	endpoint      string
	metaEndpoint  string
	outputDir     string
	prefix        string
	timeout       time.Duration
	kaTimeout     time.Duration
	userAgent     string
	proxyURL      string
	proxyUsername string
	proxyPassword string
	headers       []string
	s3Destination string
	s3Profile     string
	debug         bool
	fileLog       bool

	runConfig utils.RunConfig
	logCloser io.Closer
)

var SorazipVersion = "dev"

var rootCmd = &cobra.Command{
	Use:   "sorazip",
	Short: "Sorazip downloads Sora videos in bulk and bundles them into one ZIP",
	Long: `Sorazip extracts video references (s_ followed by 32 hex characters) from
pasted links, downloads each video one at a time and packs every successful
download into a single ZIP archive. Failed links are skipped.`,
	Version:           SorazipVersion,
	SilenceUsage:      true,
	PersistentPreRunE: setupRun,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeLog()
	},
}

var osExit = os.Exit

func closeLog() {
	if logCloser != nil {
		logCloser.Close()
		logCloser = nil
	}
}

// exit ends a command early. os.Exit skips PersistentPostRun, so the log
// file is closed here.
func exit(code int) {
	closeLog()
	osExit(code)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/sorazip/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&endpoint, "endpoint", "e", config.DefaultEndpoint, "Download endpoint, requested as <endpoint>?id=<reference>")
	rootCmd.PersistentFlags().StringVar(&metaEndpoint, "meta-endpoint", config.DefaultMetaEndpoint, "Metadata proxy used to look up video titles")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", ".", "Output directory")
	rootCmd.PersistentFlags().StringVar(&prefix, "prefix", config.DefaultPrefix, "Archive name prefix")
	rootCmd.PersistentFlags().DurationVarP(&timeout, "timeout", "t", 0, "Per-request timeout (eg. 30s, 5m); 0 waits indefinitely")
	rootCmd.PersistentFlags().DurationVarP(&kaTimeout, "keep-alive-timeout", "k", 90*time.Second, "Keep-alive timeout for client (eg. 10s, 1m, 80s)")
	rootCmd.PersistentFlags().StringVarP(&userAgent, "user-agent", "a", utils.ToolUserAgent, "User agent ('randomize' picks a browser agent)")
	rootCmd.PersistentFlags().StringVarP(&proxyURL, "proxy", "p", "", "HTTP/HTTPS proxy URL (e.g., proxy.example.com:8080)")
	rootCmd.PersistentFlags().StringVar(&proxyUsername, "proxy-username", "", "Proxy username (if not provided in proxy URL)")
	rootCmd.PersistentFlags().StringVar(&proxyPassword, "proxy-password", "", "Proxy password (if not provided in proxy URL)")
	rootCmd.PersistentFlags().StringArrayVarP(&headers, "header", "H", []string{}, "Custom headers (like 'Authorization: Basic dXNlcjpwYXNz'); can be specified multiple times")
	rootCmd.PersistentFlags().StringVar(&s3Destination, "s3", "", "Upload archives to S3 instead (s3://BUCKET/PREFIX)")
	rootCmd.PersistentFlags().StringVar(&s3Profile, "profile", "default", "AWS profile to use with --s3")

	// flags without shorthand
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging to stderr")
	rootCmd.PersistentFlags().BoolVar(&fileLog, "log-file", false, "Write logs to "+utils.LogFile)

	rootCmd.AddCommand(newBulkCmd())
	rootCmd.AddCommand(newBatchCmd())
	rootCmd.AddCommand(newGetCmd())
	rootCmd.AddCommand(newRefsCmd())
	rootCmd.AddCommand(newCleanCmd())
}

func setupRun(cmd *cobra.Command, args []string) error {
	logPath := ""
	if fileLog {
		logPath = utils.LogFile
	}
	closer, err := utils.InitLogger(debug, logPath)
	if err != nil {
		return fmt.Errorf("error opening log file: %w", err)
	}
	logCloser = closer

	path, required := configPath, configPath != ""
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path, required)
	if err != nil {
		return err
	}
	runConfig = mergeConfig(cfg, cmd)
	log.Debug().Str("op", "cmd/root").Str("endpoint", runConfig.Endpoint).Str("output", runConfig.OutputDir).Msg("configuration resolved")
	return nil
}

// mergeConfig lets explicitly set flags override the config file.
func mergeConfig(cfg config.Config, cmd *cobra.Command) utils.RunConfig {
	flags := cmd.Flags()
	pick := func(name, flagValue, fileValue string) string {
		if flags.Changed(name) || fileValue == "" {
			return flagValue
		}
		return fileValue
	}
	rc := utils.RunConfig{
		Endpoint:      pick("endpoint", endpoint, cfg.Endpoint),
		MetaEndpoint:  pick("meta-endpoint", metaEndpoint, cfg.MetaEndpoint),
		OutputDir:     pick("output", outputDir, cfg.OutputDir),
		Prefix:        pick("prefix", prefix, cfg.Prefix),
		S3Destination: pick("s3", s3Destination, cfg.S3.Destination),
		S3Profile:     pick("profile", s3Profile, cfg.S3.Profile),
		HTTPClientConfig: utils.HTTPClientConfig{
			Timeout:       timeout,
			KATimeout:     kaTimeout,
			ProxyURL:      pick("proxy", proxyURL, cfg.Proxy),
			ProxyUsername: proxyUsername,
			ProxyPassword: proxyPassword,
			UserAgent:     pick("user-agent", userAgent, cfg.UserAgent),
			Headers:       make(map[string]string),
		},
	}
	if !flags.Changed("timeout") && cfg.Timeout > 0 {
		rc.HTTPClientConfig.Timeout = cfg.Timeout
	}
	for k, v := range cfg.Headers {
		rc.HTTPClientConfig.Headers[k] = v
	}
	for k, v := range utils.ParseHeaderArgs(headers) {
		rc.HTTPClientConfig.Headers[k] = v
	}
	if rc.HTTPClientConfig.UserAgent == "randomize" {
		rc.HTTPClientConfig.UserAgent = utils.GetRandomUserAgent()
	}
	utils.SplitProxyAuth(&rc.HTTPClientConfig)
	return rc
}
