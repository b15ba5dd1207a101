package main

import (
	"bufio"
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path"
	"runtime"
	"strings"
	"time"

	"github.com/appbaseio/reindex-orchestrator/plugins"
	"github.com/appbaseio/reindex-orchestrator/plugins/reindexer"
	"github.com/appbaseio/reindex-orchestrator/util"
	"github.com/denisbrodbeck/machineid"
	"github.com/getsentry/sentry-go"
	"github.com/gorilla/mux"
	"github.com/mackerelio/go-osstat/memory"
	"github.com/pkg/profile"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const logTag = "[cmd]"

var (
	envFile    string
	logMode    string
	logFile    string
	address    string
	port       int
	https      bool
	cpuprofile bool
	sentryDSN  string
)

func init() {
	flag.StringVar(&envFile, "env", ".env", "Path to file with environment variables to load in KEY=VALUE format")
	flag.StringVar(&logMode, "log", "", "Log level: debug, info, or the default, error")
	flag.StringVar(&logFile, "logfile", "", "File to rotate logs into; empty means stderr")
	flag.StringVar(&address, "addr", "0.0.0.0", "Address to serve on")
	flag.IntVar(&port, "port", 8090, "Port number")
	flag.BoolVar(&https, "https", false, "Starts a https server instead of a http server if true")
	flag.BoolVar(&cpuprofile, "cpuprofile", false, "write cpu profile to file")
	flag.StringVar(&sentryDSN, "sentry-dsn", "", "Sentry DSN to report error logs and recovered worker panics to; empty disables reporting")
}

func main() {
	flag.Parse()
	detectWorkerID()

	if sentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: sentryDSN}); err != nil {
			log.Errorln(logTag, ": sentry init failed:", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	configureLogging()

	if cpuprofile {
		defer profile.Start().Stop()
	}

	if err := LoadEnvFromFile(envFile); err != nil {
		log.Infoln(logTag, ": reading env file", envFile, ":", err)
	}

	logMemoryStats()

	router := mux.NewRouter().StrictSlash(true)
	router.Handle("/metrics", promhttp.Handler())
	router.HandleFunc("/_health", func(w http.ResponseWriter, r *http.Request) {
		util.WriteBackMessage(w, "ok", http.StatusOK)
	})

	if err := plugins.LoadPlugin(router, reindexer.Instance()); err != nil {
		log.Fatalln(logTag, ": error loading reindexer plugin:", err)
	}

	swapper := plugins.RouterSwapperInstance()
	swapper.SetRouterAttrs(address, port, https)
	swapper.Swap(router)

	health := plugins.RouterHealthCheckInstance()
	health.SetAttrs(port, address, https)
	healthCron := cron.New()
	if err := healthCron.AddFunc("@every 30s", health.Check); err != nil {
		log.Fatalln(logTag, ": error scheduling health check:", err)
	}
	healthCron.Start()

	swapper.StartServer()
}

// detectWorkerID mirrors the source's container-vs-host identity derivation:
// inside a container the container's own cgroup id is hashed into a stable id,
// since machineid.ProtectedID reads machine state that containers share.
func detectWorkerID() {
	isDocker := false
	cmdToDetectRuntime := exec.Command("/bin/sh", "-c", "if [ -f /.dockerenv ] || [ -f /run/.containerenv ] || grep -Eq '(lxc|docker|kubepods)' /proc/1/cgroup; then echo True; else echo False; fi")
	var out bytes.Buffer
	cmdToDetectRuntime.Stdout = &out
	if err := cmdToDetectRuntime.Run(); err != nil {
		log.Fatalln(logTag, ": error detecting container runtime:", err)
	}
	if strings.TrimSpace(out.String()) == "True" {
		isDocker = true
	}

	if isDocker {
		cmd := exec.Command("/bin/sh", "-c", "head -1 /proc/self/cgroup|cut -d/ -f3")
		var cgroup bytes.Buffer
		cmd.Stdout = &cgroup
		if err := cmd.Run(); err != nil {
			log.Fatalln(logTag, ": error reading container cgroup id:", err)
		}
		id := strings.TrimSpace(cgroup.String())
		if id == "" {
			log.Fatalln(logTag, ": container cgroup id is empty")
		}
		h := hmac.New(sha256.New, []byte(id))
		h.Write([]byte("reindex-orchestrator"))
		util.SetWorkerID(hex.EncodeToString(h.Sum(nil)))
		return
	}

	id, err := machineid.ProtectedID("reindex-orchestrator")
	if err != nil {
		log.Fatalln(logTag, ": error deriving host machine id:", err)
	}
	util.SetWorkerID(id)
}

func configureLogging() {
	log.SetReportCaller(true)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:          true,
		TimestampFormat:        "2006/01/02 15:04:05",
		DisableLevelTruncation: true,
		CallerPrettyfier: func(f *runtime.Frame) (string, string) {
			return "", fmt.Sprintf(" %s:%d", path.Base(f.File), f.Line)
		},
	})

	switch logMode {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	default:
		log.SetLevel(log.ErrorLevel)
	}

	if logFile != "" {
		log.SetOutput(&lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    100,
			MaxAge:     14,
			MaxBackups: 10,
		})
	}

	if sentryDSN != "" {
		log.AddHook(util.NewSentryHook())
	}
}

func logMemoryStats() {
	stats, err := memory.Get()
	if err != nil {
		log.Warnln(logTag, ": error reading memory stats:", err)
		return
	}
	log.Infoln(logTag, ": running with", stats.Total, "bytes of total memory available")
}

// LoadEnvFromFile loads env vars from envFile. Envs in the file should be
// in KEY=VALUE format.
func LoadEnvFromFile(envFile string) error {
	if envFile == "" {
		return nil
	}

	file, err := os.Open(envFile)
	if err != nil {
		return err
	}
	defer file.Close()

	envMap, err := ParseEnvFile(file)
	if err != nil {
		return err
	}

	for k, v := range envMap {
		if err := os.Setenv(k, v); err != nil {
			return err
		}
	}
	return nil
}

// ParseEnvFile parses envFile for env variables present in KEY=VALUE
// format, ignoring blank lines and lines starting with "#".
func ParseEnvFile(envFile io.Reader) (map[string]string, error) {
	envMap := make(map[string]string)

	scanner := bufio.NewScanner(envFile)
	lineNumber := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		lineNumber++

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.SplitN(line, "=", 2)
		if len(fields) != 2 {
			return nil, fmt.Errorf("can't parse line %d; line should be in KEY=VALUE format", lineNumber)
		}
		key, value := fields[0], fields[1]
		if key == "" || strings.Contains(key, " ") {
			return nil, fmt.Errorf("can't parse line %d; invalid KEY", lineNumber)
		}
		envMap[key] = value
	}
	return envMap, scanner.Err()
}
