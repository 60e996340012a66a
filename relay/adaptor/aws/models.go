package aws

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	gocache "github.com/patrickmn/go-cache"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/fuchsia74/bedrock-relay/common/logger"
)

// ErrModelNotFound marks a model string that resolves to nothing. The
// controller maps it to a 404 with code model_not_found.
var ErrModelNotFound = errors.New("model not found")

// Model is the OpenAI-shaped model object served by /v1/models. Field order
// keeps the JSON keys sorted.
type Model struct {
	Created int64  `json:"created"`
	Id      string `json:"id"`
	Object  string `json:"object"`
	OwnedBy string `json:"owned_by"`
}

// SignFunc attaches auth headers to a control-plane request.
type SignFunc func(ctx context.Context, req *http.Request, body []byte) error

// snapshot is one consistent view of the control plane: the listed models,
// the client-id to Bedrock-id map, and the Bedrock-id to inference-profile
// map. Snapshots are immutable once stored.
type snapshot struct {
	models          []Model
	clientToBedrock map[string]string
	profileByModel  map[string]string
}

const snapshotKey = "bedrock-models"

// ModelCache is the process-wide model-resolution cache. Reads hit the TTL
// store; repopulation is serialized by the mutex but not single-flighted, as
// the resulting content is idempotent.
type ModelCache struct {
	mu sync.Mutex

	endpoint string
	ttl      time.Duration
	httpc    *http.Client
	sign     SignFunc

	store *gocache.Cache
}

// NewModelCache builds a cache against the given control-plane endpoint
// (scheme and host, no trailing slash).
func NewModelCache(endpoint string, ttl time.Duration, httpc *http.Client, sign SignFunc) *ModelCache {
	return &ModelCache{
		endpoint: endpoint,
		ttl:      ttl,
		httpc:    httpc,
		sign:     sign,
		store:    gocache.New(ttl, 10*time.Minute),
	}
}

// List returns the cached model list, repopulating it when stale.
func (c *ModelCache) List(ctx context.Context) ([]Model, error) {
	snap, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.models, nil
}

// Get returns one model by its user-facing id.
func (c *ModelCache) Get(ctx context.Context, id string) (*Model, bool) {
	snap, err := c.snapshot(ctx)
	if err != nil {
		return nil, false
	}
	for i := range snap.models {
		if snap.models[i].Id == id {
			return &snap.models[i], true
		}
	}
	return nil, false
}

// Resolve maps a client-supplied model string to the Bedrock runtime
// identifier to invoke, preferring the inference-profile id when the model
// has one (some models only accept profile-qualified invocations).
func (c *ModelCache) Resolve(ctx context.Context, clientModel string) (string, error) {
	name := strings.TrimPrefix(clientModel, "anthropic/")

	if strings.Contains(name, "anthropic.") {
		// Raw Bedrock identifier; profile lookup is best-effort only.
		if snap, err := c.snapshot(ctx); err == nil {
			if profileID, ok := snap.profileByModel[name]; ok {
				return profileID, nil
			}
		}
		return name, nil
	}

	snap, err := c.snapshot(ctx)
	if err != nil {
		return "", err
	}

	base, ok := snap.clientToBedrock[name]
	if !ok {
		normalized := strings.ReplaceAll(name, ".", "-")
		for _, model := range snap.models {
			if strings.HasPrefix(model.Id, normalized) {
				base = snap.clientToBedrock[model.Id]
				ok = true
				break
			}
		}
	}
	if !ok {
		return "", errors.Wrapf(ErrModelNotFound, "model %q", clientModel)
	}

	if profileID, ok := snap.profileByModel[base]; ok {
		return profileID, nil
	}
	return base, nil
}

func (c *ModelCache) snapshot(ctx context.Context) (*snapshot, error) {
	if v, ok := c.store.Get(snapshotKey); ok {
		return v.(*snapshot), nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.store.Get(snapshotKey); ok {
		return v.(*snapshot), nil
	}

	snap, err := c.refresh(ctx)
	if err != nil {
		return nil, err
	}
	c.store.Set(snapshotKey, snap, gocache.DefaultExpiration)
	return snap, nil
}

// refresh fetches the foundation-model list and the inference-profile list
// concurrently. The model list is required; profile failures degrade to an
// empty mapping.
func (c *ModelCache) refresh(ctx context.Context) (*snapshot, error) {
	var foundationModels, profiles []byte

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		body, err := c.fetch(gctx, "/foundation-models?byProvider=Anthropic")
		if err != nil {
			return errors.Wrap(err, "list foundation models")
		}
		foundationModels = body
		return nil
	})
	g.Go(func() error {
		body, err := c.fetch(gctx, "/inference-profiles?maxResults=1000&typeEquals=SYSTEM_DEFINED")
		if err != nil {
			logger.Logger.Warn("failed to list inference profiles", zap.Error(err))
			return nil
		}
		profiles = body
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := &snapshot{
		clientToBedrock: map[string]string{},
		profileByModel:  map[string]string{},
	}

	gjson.GetBytes(foundationModels, "modelSummaries").ForEach(func(_, m gjson.Result) bool {
		if m.Get("modelLifecycle.status").String() != "ACTIVE" {
			return true
		}
		bedrockID := m.Get("modelId").String()
		if bedrockID == "" {
			return true
		}
		userID := userFacingModelID(bedrockID)
		snap.models = append(snap.models, Model{
			Created: createdFromModelID(bedrockID),
			Id:      userID,
			Object:  "model",
			OwnedBy: strings.ToLower(m.Get("providerName").String()),
		})
		snap.clientToBedrock[userID] = bedrockID
		return true
	})
	sort.SliceStable(snap.models, func(i, j int) bool {
		return snap.models[i].Created > snap.models[j].Created
	})

	gjson.GetBytes(profiles, "inferenceProfileSummaries").ForEach(func(_, p gjson.Result) bool {
		if p.Get("status").String() != "ACTIVE" {
			return true
		}
		profileID := p.Get("inferenceProfileId").String()
		if !strings.Contains(profileID, "anthropic.") {
			return true
		}
		p.Get("models").ForEach(func(_, pm gjson.Result) bool {
			arn := pm.Get("modelArn").String()
			if idx := strings.LastIndex(arn, "/"); idx >= 0 && idx+1 < len(arn) {
				snap.profileByModel[arn[idx+1:]] = profileID
			}
			return true
		})
		return true
	})

	return snap, nil
}

func (c *ModelCache) fetch(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+path, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build control-plane request")
	}
	req.Header.Set("Accept", "application/json")
	if err := c.sign(ctx, req, nil); err != nil {
		return nil, err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "control-plane request")
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read control-plane response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("control-plane request failed with status %d", resp.StatusCode)
	}
	return body, nil
}

var (
	versionSuffixRe = regexp.MustCompile(`-v\d+:\d+$`)
	dateRunRe       = regexp.MustCompile(`\d{8}`)
)

// userFacingModelID derives the id served on /v1/models: the leading
// "anthropic." segment and the trailing "-v<major>:<minor>" suffix are
// stripped from the Bedrock id.
func userFacingModelID(bedrockID string) string {
	id := strings.TrimPrefix(bedrockID, "anthropic.")
	return versionSuffixRe.ReplaceAllString(id, "")
}

// createdFromModelID extracts the YYYYMMDD stamp embedded in most Bedrock
// model ids and converts it to Unix seconds in the proleptic Gregorian
// calendar (UTC). Ids without a valid embedded date yield 0.
func createdFromModelID(bedrockID string) int64 {
	run := dateRunRe.FindString(bedrockID)
	if run == "" {
		return 0
	}
	year, _ := strconv.Atoi(run[:4])
	month, _ := strconv.Atoi(run[4:6])
	day, _ := strconv.Atoi(run[6:8])
	if year < 1970 || year > 2100 || month < 1 || month > 12 || day < 1 || day > 31 {
		return 0
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).Unix()
}
