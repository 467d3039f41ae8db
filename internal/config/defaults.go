package config

const (
	defaultDataDir               = "~/.local/share/animesync"
	defaultLogDir                = "~/.local/share/animesync/logs"
	defaultServerBind            = "127.0.0.1:7488"
	defaultStreamIntervalMillis  = 1000
	defaultShikimoriBaseURL      = "https://shikimori.one/api/graphql"
	defaultShikimoriUserAgent    = "animesync/dev"
	defaultSearchLimit           = 5
	defaultRequestTimeoutSeconds = 15
	defaultCacheSize             = 256
	defaultCacheTTLSeconds       = 600
	defaultTitleDelayMillis      = 500
	defaultRecordDelayMillis     = 1500
	defaultStoreBackend          = BackendSQLite
	defaultMongoDatabase         = "animesync"
	defaultMongoCollection       = "anime"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultNotifyTimeoutSeconds  = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Server: Server{
			Bind:                 defaultServerBind,
			StreamIntervalMillis: defaultStreamIntervalMillis,
		},
		Shikimori: Shikimori{
			BaseURL:               defaultShikimoriBaseURL,
			UserAgent:             defaultShikimoriUserAgent,
			SearchLimit:           defaultSearchLimit,
			RequestTimeoutSeconds: defaultRequestTimeoutSeconds,
			CacheSize:             defaultCacheSize,
			CacheTTLSeconds:       defaultCacheTTLSeconds,
		},
		Sync: Sync{
			TitleDelayMillis:  defaultTitleDelayMillis,
			RecordDelayMillis: defaultRecordDelayMillis,
		},
		Store: Store{
			Backend:    defaultStoreBackend,
			Database:   defaultMongoDatabase,
			Collection: defaultMongoCollection,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNotifyTimeoutSeconds,
			OnStart:               true,
		},
	}
}
