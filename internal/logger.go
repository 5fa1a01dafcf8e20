package internal

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is shared by the engine, the store and the CLI.
var Logger = logrus.New()

func init() {
	Logger.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	Logger.SetOutput(os.Stderr)
	Logger.SetLevel(logrus.WarnLevel)
}

// ConfigureLogging switches between quiet (warnings only) and verbose output.
// JSON output is used when stderr is collected by a log shipper.
func ConfigureLogging(w io.Writer, verbose bool, jsonFormat bool) {
	if w != nil {
		Logger.SetOutput(w)
	}
	if verbose {
		Logger.SetLevel(logrus.DebugLevel)
	} else {
		Logger.SetLevel(logrus.WarnLevel)
	}
	if jsonFormat {
		Logger.SetFormatter(&logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyMsg: "message",
			},
		})
	}
}
