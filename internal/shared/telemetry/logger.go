package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Info emits an info-level JSON log line.
func Info(msg string, fields map[string]any) {
	emit("info", msg, fields)
}

// Error emits an error-level JSON log line.
func Error(msg string, fields map[string]any) {
	emit("error", msg, fields)
}

func emit(level, msg string, fields map[string]any) {
	entry := make(map[string]any, len(fields)+3)
	for k, v := range fields {
		entry[k] = v
	}
	entry["ts"] = time.Now().UTC().Format(time.RFC3339)
	entry["level"] = level
	entry["msg"] = msg

	if err := json.NewEncoder(os.Stdout).Encode(entry); err != nil {
		fmt.Fprintf(os.Stdout, `{"ts":%q,"level":"error","msg":"logger encode failed","err":%q}`+"\n",
			time.Now().UTC().Format(time.RFC3339), err.Error())
	}
}
