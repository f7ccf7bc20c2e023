// Package logging configures the process-wide logrus logger.
package logging

import (
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Setup sets the level and output format of the standard logger. Unknown
// levels fall back to info; format is "json" or "text".
func Setup(level, format string) {
	log.SetOutput(os.Stdout)

	lvl, err := log.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)

	if strings.EqualFold(format, "text") {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&log.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	}

	if err != nil && level != "" {
		log.WithField("level", level).Warn("unknown log level, using info")
	}
}
