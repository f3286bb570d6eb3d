package logcolors

// ANSI color codes for log prefixes
const (
	Reset  = "\033[0m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Blue   = "\033[34m"
	Purple = "\033[35m"
	Cyan   = "\033[36m"

	BrightGreen   = "\033[92m"
	BrightBlue    = "\033[94m"
	BrightMagenta = "\033[95m"
	BrightCyan    = "\033[96m"
)

// Cache-related log prefixes
const (
	LogCacheInit     = Blue + "[Cache:Init]" + Reset
	LogCache         = Blue + "[Cache]" + Reset
	LogCacheClear    = Blue + "[Cache:Clear]" + Reset
	LogCacheRedis    = BrightBlue + "[Cache:Redis]" + Reset
	LogCacheLyrics   = Green + "[Cache:Lyrics]" + Reset
	LogCacheNegative = Cyan + "[Cache:Negative]" + Reset
)

// Rate limiting log prefixes
const (
	LogRateLimit = Purple + "[RateLimit]" + Reset
	LogAPIKey    = Purple + "[APIKey]" + Reset
)

// Server/Init log prefixes
const (
	LogServer   = Green + "[Server]" + Reset
	LogConfig   = Cyan + "[Config]" + Reset
	LogStats    = Blue + "[Stats]" + Reset
	LogNotifier = Purple + "[Notifier]" + Reset
)

// Parsing and conversion log prefixes
const (
	LogParser    = BrightGreen + "[Parser]" + Reset
	LogConverter = BrightCyan + "[Converter]" + Reset
)

// Provider log prefixes
const (
	LogRequest        = Purple + "[Request]" + Reset
	LogSearch         = Blue + "[Search]" + Reset
	LogHTTP           = Cyan + "[HTTP]" + Reset
	LogMatch          = Green + "[Match]" + Reset
	LogLyrics         = Blue + "[Lyrics]" + Reset
	LogDurationFilter = Cyan + "[Duration Filter]" + Reset
	LogBestMatch      = Green + "[Best Match]" + Reset
	LogLocalIndex     = BrightMagenta + "[Local:Index]" + Reset
	LogWatcher        = BrightMagenta + "[Watcher]" + Reset
	LogWarning        = Red + "[Warning]" + Reset
)

// CircuitBreakerPrefix returns a colored circuit breaker prefix with the given name
func CircuitBreakerPrefix(name string) string {
	return Purple + "[CircuitBreaker:" + name + "]" + Reset
}

var providerColors = []string{Green, Blue, Purple, Cyan, BrightGreen, BrightBlue, BrightMagenta, BrightCyan}

// Provider returns a colored provider name. The same name always gets the
// same color.
func Provider(name string) string {
	hash := 0
	for _, c := range name {
		hash += int(c)
	}
	return providerColors[hash%len(providerColors)] + name + Reset
}
