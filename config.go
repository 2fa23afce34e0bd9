// config.go

package bayra

type configStruct struct {
	logLevel               LogLevel
	dontPanic              bool
	defaultErrHandlingFunc func(errType LogLevel, packageName string, funcName string, errMsg string)
	threadSafe             bool
}

var Config *configStruct = &configStruct{logLevel: LogLevelInfo, threadSafe: true}

type LogLevel int

const (
	// LogLevelDebug is the log level for debug messages.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is the log level for info messages.
	LogLevelInfo
	// LogLevelWarning is the log level for warning messages.
	LogLevelWarning
	// LogLevelFatal is the log level for fatal messages.
	LogLevelFatal
)

func (c *configStruct) SetLogLevel(level LogLevel) {
	c.logLevel = level
}

func (c *configStruct) GetLogLevel() LogLevel {
	return LogLevel(c.logLevel)
}

func (c *configStruct) SetDontPanic(dontPanic bool) {
	c.dontPanic = dontPanic
}

func (c *configStruct) GetDontPanicStatus() bool {
	return c.dontPanic
}

func (c *configStruct) SetDefaultErrHandlingFunc(fn func(errType LogLevel, packageName string, funcName string, errMsg string)) {
	c.defaultErrHandlingFunc = fn
}

func (c *configStruct) GetDefaultErrHandlingFunc() func(errType LogLevel, packageName string, funcName string, errMsg string) {
	return c.defaultErrHandlingFunc
}

func (c *configStruct) GetThreadSafetyStatus() bool {
	return c.threadSafe
}

// # NOT RECOMMENDED!
//
// Dangerously_TurnOffThreadSafety turns off locking around the
// substitution-model transition-table caches. You can
// enjoy a performance boost on single-threaded workloads, but concurrent
// queries are NOT safe afterwards.
func (c *configStruct) Dangerously_TurnOffThreadSafety() {
	c.threadSafe = false
	LogWarning("config.Dangerously_TurnOffThreadSafety: Thread safety is turned off. Concurrent queries are NOT safe!\nIt may be a mistake. Remove `Dangerously_TurnOffThreadSafety()` in your code to restore thread safety.")
}

// ======================== Configs ========================

// SetDefaultConfig resets Config to its default values.
func SetDefaultConfig() {
	Config.logLevel = LogLevelInfo
	Config.dontPanic = false
	Config.defaultErrHandlingFunc = nil
	Config.threadSafe = true
}
