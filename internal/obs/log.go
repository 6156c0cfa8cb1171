package obs

import (
	"encoding/json"
	"log"
	"os"
	"sync"
	"time"
)

var (
	loggerOnce sync.Once
	logger     *log.Logger
)

// Logger returns the shared line-oriented logger. All structured output
// of the service funnels through it so log collection stays one stream.
func Logger() *log.Logger {
	loggerOnce.Do(func() {
		logger = log.New(os.Stdout, "", 0)
	})
	return logger
}

// LogRequest emits one JSON line per HTTP request. The caller supplies
// method/path/status fields; timestamp and record type are stamped here.
func LogRequest(fields map[string]any) {
	entry := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		entry[k] = v
	}
	entry["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	entry["type"] = "http"
	data, err := json.Marshal(entry)
	if err != nil {
		Logger().Println(`{"type":"http","level":"error","msg":"log marshal failed"}`)
		return
	}
	Logger().Println(string(data))
}
