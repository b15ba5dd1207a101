package cluster

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/buger/jsonparser"
	es7 "github.com/olivere/elastic/v7"
	log "github.com/sirupsen/logrus"
)

const logTag = "[cluster]"

// mlUpgradeModePath is the cluster-wide ML endpoint toggled before and
// after a writable ML index is put into readonly mode.
const mlUpgradeModePath = "/_ml/set_upgrade_mode"

// es7Client implements Client against a single olivere/elastic/v7 client.
type es7Client struct {
	client *es7.Client
}

// NewES7Client wraps an existing olivere/elastic/v7 client.
func NewES7Client(client *es7.Client) Client {
	return &es7Client{client: client}
}

func (c *es7Client) IndexExists(ctx context.Context, index string) (bool, error) {
	return c.client.IndexExists(index).Do(ctx)
}

func (c *es7Client) PutSettings(ctx context.Context, index string, body map[string]interface{}) (bool, error) {
	res, err := c.client.IndexPutSettings(index).BodyJson(body).Do(ctx)
	if err != nil {
		return false, err
	}
	return res.Acknowledged, nil
}

func (c *es7Client) FlatSettings(ctx context.Context, index string) (map[string]interface{}, error) {
	res, err := c.client.IndexGetSettings(index).FlatSettings(true).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("error fetching settings of index %q: %w", index, err)
	}
	indexSettings, ok := res[index]
	if !ok || indexSettings == nil {
		return nil, fmt.Errorf("settings for index %s not found", index)
	}
	flat := make(map[string]interface{}, len(indexSettings.Settings))
	for k, v := range indexSettings.Settings {
		flat[k] = v
	}
	return flat, nil
}

func (c *es7Client) Mappings(ctx context.Context, index string) (map[string]interface{}, error) {
	res, err := c.client.GetMapping().Index(index).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("error fetching mappings of index %q: %w", index, err)
	}
	indexMapping, ok := res[index].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("mappings result for index %q not found", index)
	}
	mappings, _ := indexMapping["mappings"].(map[string]interface{})
	return mappings, nil
}

func (c *es7Client) CreateIndex(ctx context.Context, index string, body map[string]interface{}) (bool, error) {
	res, err := c.client.CreateIndex(index).BodyJson(body).Do(ctx)
	if err != nil {
		return false, err
	}
	return res.Acknowledged, nil
}

func (c *es7Client) Reindex(ctx context.Context, req ReindexRequest) (string, error) {
	source := es7.NewReindexSource().Index(req.SourceIndex)
	dest := es7.NewReindexDestination().Index(req.DestIndex)

	call := c.client.Reindex().Source(source).Destination(dest)
	if req.ScriptSrc != "" {
		script := es7.NewScriptInline(req.ScriptSrc).Lang(req.ScriptLang).Params(req.ScriptVars)
		call = call.Script(script)
	}

	result, err := call.DoAsync(ctx)
	if err != nil {
		return "", err
	}
	return result.TaskId, nil
}

// TaskStatus polls the task API and walks the two opaque JSON blobs the
// client library declines to unmarshal fully, since their schema varies by
// task action type. Only the three fields the step bodies need are pulled
// out, by key path, rather than decoding the full envelope.
func (c *es7Client) TaskStatus(ctx context.Context, taskID string) (TaskProgress, error) {
	res, err := c.client.PerformRequest(ctx, es7.PerformRequestOptions{
		Method: "GET",
		Path:   "/_tasks/" + taskID,
	})
	if err != nil {
		return TaskProgress{}, err
	}
	body := res.Body

	completed, _ := jsonparser.GetBoolean(body, "completed")
	progress := TaskProgress{Completed: completed}

	if status, _, _, err := jsonparser.Get(body, "task", "status"); err == nil {
		if created, err := jsonparser.GetInt(status, "created"); err == nil {
			progress.Created = created
		}
		if total, err := jsonparser.GetInt(status, "total"); err == nil {
			progress.Total = total
		}
	}

	if response, _, _, err := jsonparser.Get(body, "response"); err == nil {
		_, _ = jsonparser.ArrayEach(response, func(value []byte, dataType jsonparser.ValueType, offset int, arrErr error) {
			if arrErr != nil {
				log.Warnln(logTag, ": error walking task failures for", taskID, ":", arrErr)
				return
			}
			index, _ := jsonparser.GetString(value, "index")
			id, _ := jsonparser.GetString(value, "id")
			reason, _ := jsonparser.GetString(value, "cause", "reason")
			if reason == "" {
				// "cause" is sometimes a bare string rather than an object.
				reason, _ = jsonparser.GetString(value, "cause")
			}
			progress.Failures = append(progress.Failures, TaskFailure{Index: index, ID: id, Cause: reason})
		}, "failures")
	}

	return progress, nil
}

func (c *es7Client) DeleteTask(ctx context.Context, taskID string) error {
	_, err := c.client.Delete().
		Index(".tasks").
		Type("task").
		Id(taskID).
		Do(ctx)
	return err
}

func (c *es7Client) Aliases(ctx context.Context, index string) ([]AliasInfo, error) {
	res, err := c.client.PerformRequest(ctx, es7.PerformRequestOptions{
		Method: "GET",
		Path:   "/" + index + "/_alias",
	})
	if err != nil {
		return nil, fmt.Errorf("error fetching aliases of index %q: %w", index, err)
	}

	var indexMap map[string]struct {
		Aliases map[string]struct {
			IsWriteIndex bool                   `json:"is_write_index"`
			Filter       map[string]interface{} `json:"filter,omitempty"`
		} `json:"aliases"`
	}
	if err := json.Unmarshal(res.Body, &indexMap); err != nil {
		return nil, fmt.Errorf("error decoding aliases of index %q: %w", index, err)
	}

	indexData, ok := indexMap[index]
	if !ok {
		return nil, nil
	}
	aliases := make([]AliasInfo, 0, len(indexData.Aliases))
	for aliasName, aliasData := range indexData.Aliases {
		aliases = append(aliases, AliasInfo{
			Name:         aliasName,
			Filter:       aliasData.Filter,
			IsWriteIndex: aliasData.IsWriteIndex,
		})
	}
	return aliases, nil
}

func (c *es7Client) UpdateAliases(ctx context.Context, actions []AliasAction) (bool, error) {
	call := c.client.Alias()
	for _, a := range actions {
		switch a.Kind {
		case AliasAdd:
			action := es7.NewAliasAddAction(a.Alias).Index(a.Index).IsWriteIndex(a.IsWriteIndex)
			if a.Filter != nil {
				action = action.Filter(es7.NewRawStringQuery(mustJSON(a.Filter)))
			}
			call = call.Action(action)
		case AliasRemoveIndex:
			call = call.Action(es7.NewAliasRemoveIndexAction(a.Index))
		}
	}
	res, err := call.Do(ctx)
	if err != nil {
		return false, err
	}
	return res.Acknowledged, nil
}

func (c *es7Client) NodeVersions(ctx context.Context) ([]NodeVersion, error) {
	res, err := c.client.NodesInfo().Metric("nodes").Do(ctx)
	if err != nil {
		return nil, err
	}
	versions := make([]NodeVersion, 0, len(res.Nodes))
	for _, n := range res.Nodes {
		versions = append(versions, NodeVersion(n.Version))
	}
	return versions, nil
}

func (c *es7Client) SetMLUpgradeMode(ctx context.Context, enabled bool) (bool, error) {
	path := fmt.Sprintf("%s?enabled=%t", mlUpgradeModePath, enabled)
	res, err := c.client.PerformRequest(ctx, es7.PerformRequestOptions{
		Method: "POST",
		Path:   path,
	})
	if err != nil {
		return false, err
	}

	var body struct {
		Acknowledged bool `json:"acknowledged"`
	}
	if err := json.Unmarshal(res.Body, &body); err != nil {
		return false, fmt.Errorf("error decoding ml upgrade-mode response: %w", err)
	}
	return body.Acknowledged, nil
}

func mustJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		log.Errorln(logTag, ": error marshalling alias filter:", err)
		return "{}"
	}
	return string(b)
}
