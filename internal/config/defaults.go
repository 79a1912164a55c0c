package config

const (
	defaultAPIBaseURL         = "http://127.0.0.1:8084"
	defaultAPITimeoutSeconds  = 10
	defaultMinMatchScore      = 75
	defaultContentType        = "ebook"
	defaultStateDir           = "~/.local/share/bookwatch"
	defaultLogDirName         = "logs"
	defaultNotifyTimeout      = 10
	defaultPollInterval       = 5
	defaultErrorRetryInterval = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

var (
	defaultLanguages        = []string{"en"}
	defaultEbookFormats     = []string{"epub", "pdf", "mobi", "azw", "azw3"}
	defaultAudiobookFormats = []string{"m4b", "m4a", "mp3", "flac"}
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		API: API{
			BaseURL:        defaultAPIBaseURL,
			TimeoutSeconds: defaultAPITimeoutSeconds,
		},
		Acquisition: Acquisition{
			MinMatchScore:      defaultMinMatchScore,
			Languages:          append([]string(nil), defaultLanguages...),
			EbookFormats:       append([]string(nil), defaultEbookFormats...),
			AudiobookFormats:   append([]string(nil), defaultAudiobookFormats...),
			DefaultContentType: defaultContentType,
		},
		Paths: Paths{
			StateDir: defaultStateDir,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Batch:          true,
			Errors:         true,
		},
		Watch: Watch{
			PollIntervalSeconds: defaultPollInterval,
			ErrorRetrySeconds:   defaultErrorRetryInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
