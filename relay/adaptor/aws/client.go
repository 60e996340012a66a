package aws

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/url"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"

	"github.com/fuchsia74/bedrock-relay/common/client"
	"github.com/fuchsia74/bedrock-relay/common/config"
)

// SigV4 service name shared by the runtime and control-plane hosts.
const signingService = "bedrock"

var (
	awsCfg aws.Config
	signer *v4.Signer

	// Models resolves client model strings to Bedrock runtime identifiers
	// and backs the /v1/models surface.
	Models *ModelCache
)

// Init loads the AWS credential chain and wires the process-wide signer and
// model cache. Static credentials from config take precedence over the chain.
func Init(ctx context.Context) error {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(config.AWSRegion),
	}
	if config.AWSAccessKeyID != "" && config.AWSSecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				config.AWSAccessKeyID,
				config.AWSSecretAccessKey,
				config.AWSSessionToken,
			),
		))
	}

	var err error
	awsCfg, err = awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return errors.Wrap(err, "load AWS config")
	}
	signer = v4.NewSigner()

	Models = NewModelCache(
		"https://"+config.ControlPlaneHost(),
		config.ModelCacheTTL,
		client.HTTPClient,
		SignRequest,
	)
	return nil
}

// SignRequest attaches SigV4 headers (Authorization, X-Amz-Date,
// X-Amz-Content-Sha256, and the security token for temporary credentials) to
// req for the configured region.
func SignRequest(ctx context.Context, req *http.Request, body []byte) error {
	creds, err := awsCfg.Credentials.Retrieve(ctx)
	if err != nil {
		return errors.Wrap(err, "retrieve AWS credentials")
	}
	sum := sha256.Sum256(body)
	payloadHash := hex.EncodeToString(sum[:])
	req.Header.Set("X-Amz-Content-Sha256", payloadHash)
	if err := signer.SignHTTP(ctx, creds, req, payloadHash, signingService, config.AWSRegion, time.Now()); err != nil {
		return errors.Wrap(err, "sign request")
	}
	return nil
}

// InvokePath builds the Bedrock runtime path for a resolved model id. Model
// ids carry ':' and '.' so the id is path-escaped, matching the SigV4
// canonical form.
func InvokePath(modelID string, stream bool) string {
	if stream {
		return "/model/" + url.PathEscape(modelID) + "/invoke-with-response-stream"
	}
	return "/model/" + url.PathEscape(modelID) + "/invoke"
}

// Invoke signs and dispatches a runtime call. The caller owns the response
// body and the context deadline.
func Invoke(ctx context.Context, path string, payload []byte, stream bool) (*http.Response, error) {
	endpoint := "https://" + config.RuntimeHost() + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "build runtime request")
	}
	req.Header.Set("Content-Type", "application/json")
	if stream {
		req.Header.Set("Accept", "application/vnd.amazon.eventstream")
	} else {
		req.Header.Set("Accept", "application/json")
	}
	if err := SignRequest(ctx, req, payload); err != nil {
		return nil, err
	}
	resp, err := client.HTTPClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "invoke bedrock runtime")
	}
	return resp, nil
}
