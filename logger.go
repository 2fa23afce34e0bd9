package bayra

import "log"

func LogFatal(msg string, args ...any) {
	if msg[len(msg)-1] != '\n' {
		msg += "\n"
	}
	log.Fatalf("<{[bayra - FATAL!]}> "+msg, args...)
}

func LogWarning(msg string, args ...any) {
	if Config.GetLogLevel() > LogLevelWarning {
		return
	}
	if msg[len(msg)-1] != '\n' {
		msg += "\n"
	}
	log.Printf("[bayra - Warning] "+msg, args...)
}

func LogDebug(msg string, args ...any) {
	if Config.GetLogLevel() > LogLevelDebug {
		return
	}
	if msg[len(msg)-1] != '\n' {
		msg += "\n"
	}
	log.Printf("<bayra - Debug> "+msg, args...)
}

func LogInfo(msg string, args ...any) {
	if Config.GetLogLevel() > LogLevelInfo {
		return
	}
	if msg[len(msg)-1] != '\n' {
		msg += "\n"
	}
	log.Printf("[bayra - Info] "+msg, args...)
}
