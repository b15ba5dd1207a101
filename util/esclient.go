package util

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/appbaseio/reindex-orchestrator/errors"
	es7 "github.com/olivere/elastic/v7"
	log "github.com/sirupsen/logrus"
)

// EsClusterURLEnv is the env var naming the target cluster to migrate.
const EsClusterURLEnv = "ES_CLUSTER_URL"

var (
	clientInit sync.Once
	client7    *es7.Client
	version    int
)

// GetClient7 returns the shared es7 client, initializing it on first use.
func GetClient7() *es7.Client {
	if client7 == nil {
		initClient7()
	}
	return client7
}

// GetESURL returns the cluster URL with escaped auth, if embedded.
func GetESURL() string {
	esURL := os.Getenv(EsClusterURLEnv)
	if esURL == "" {
		log.Fatal("Error encountered: ", errors.NewEnvVarNotSetError(EsClusterURLEnv))
	}

	if strings.Contains(esURL, "@") {
		splitIndex := strings.LastIndex(esURL, "@")
		protocolWithCredentials := strings.Split(esURL[0:splitIndex], "://")
		credentials := protocolWithCredentials[1]
		protocol := protocolWithCredentials[0]
		host := esURL[splitIndex+1:]

		credentialSeparator := strings.Index(credentials, ":")
		username := credentials[0:credentialSeparator]
		password := credentials[credentialSeparator+1:]
		esURL = protocol + "://" + url.PathEscape(username) + ":" + url.PathEscape(password) + "@" + host
	}
	return esURL
}

// GetVersion returns the cached major version number of the cluster.
func GetVersion() int {
	if version == 0 {
		esVersion, err := GetClient7().ElasticsearchVersion(GetESURL())
		if err != nil {
			log.Fatal("Error encountered: ", fmt.Errorf("error while retrieving the elastic version: %v", err))
		}
		splitStr := strings.Split(esVersion, ".")
		if len(splitStr) > 0 && splitStr[0] != "" {
			version, err = strconv.Atoi(splitStr[0])
			if err != nil {
				log.Errorln("Error encountered: error while calculating the elastic version", err)
			}
		}
	}
	return version
}

func isSniffingEnabled() bool {
	return os.Getenv("SET_SNIFFING") == "true"
}

func initClient7() {
	var err error

	loggerT := log.New()
	wrappedLoggerDebug := &WrapKitLoggerDebug{*loggerT}
	wrappedLoggerError := &WrapKitLoggerError{*loggerT}

	esHTTPClient := HTTPClient()
	esHTTPClient.Transport = NewCustomESTransport(esHTTPClient.Transport, WorkerID())

	client7, err = es7.NewClient(
		es7.SetURL(GetESURL()),
		es7.SetRetrier(NewRetrier()),
		es7.SetSniff(isSniffingEnabled()),
		es7.SetHttpClient(esHTTPClient),
		es7.SetErrorLog(wrappedLoggerError),
		es7.SetInfoLog(wrappedLoggerDebug),
		es7.SetTraceLog(wrappedLoggerDebug),
	)
	if err != nil {
		log.Fatal("Error encountered: ", fmt.Errorf("error while initializing elastic v7 client: %v", err))
	}
}

// NewClient instantiates the shared cluster client exactly once per process.
func NewClient() {
	clientInit.Do(func() {
		initClient7()
		log.Println("clients instantiated, elastic search version is", GetVersion())
	})
}

var workerID string

// WorkerID returns the stable identity of this orchestrator process,
// set once at startup from the machine identity.
func WorkerID() string {
	return workerID
}

// SetWorkerID records the identity used to tag outgoing cluster requests.
func SetWorkerID(id string) {
	workerID = id
}
