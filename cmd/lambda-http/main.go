package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=arm64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"

	"coverletter-backend/internal/bootstrap"
	"coverletter-backend/internal/shared/config"
	"coverletter-backend/internal/shared/telemetry"
)

var (
	initOnce  sync.Once
	initErr   error
	ginLambda *ginadapter.GinLambdaV2
)

// initApp builds the router once per execution environment. Generation runs
// through the queue when SQS_QUEUE_URL is set, since API Gateway caps the
// request at 30 seconds.
func initApp() {
	cfg := config.Load()
	app, err := bootstrap.Build(context.Background(), cfg)
	if err != nil {
		initErr = err
		return
	}
	if app.Queue == nil {
		telemetry.Warn("lambda_http.sync_generation", map[string]any{
			"generation_timeout": cfg.GenerationTimeout.String(),
		})
	}
	ginLambda = ginadapter.NewV2(app.Router)
}

func handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	initOnce.Do(initApp)
	if initErr != nil {
		telemetry.Error("lambda_http.bootstrap_failed", map[string]any{"error": initErr})
		return errorResponse("bootstrap failed"), nil
	}
	withInvocationRequestID(ctx, &req)
	return ginLambda.ProxyWithContext(ctx, req)
}

// withInvocationRequestID reuses the Lambda request ID when the caller did
// not send X-Request-Id, so API logs line up with CloudWatch.
func withInvocationRequestID(ctx context.Context, req *events.APIGatewayV2HTTPRequest) {
	if _, ok := req.Headers["x-request-id"]; ok {
		return
	}
	lc, ok := lambdacontext.FromContext(ctx)
	if !ok || lc.AwsRequestID == "" {
		return
	}
	if req.Headers == nil {
		req.Headers = map[string]string{}
	}
	req.Headers["x-request-id"] = lc.AwsRequestID
}

func errorResponse(message string) events.APIGatewayV2HTTPResponse {
	body, _ := json.Marshal(map[string]any{
		"error": map[string]string{"code": "internal_error", "message": message},
	})
	return events.APIGatewayV2HTTPResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       string(body),
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

func main() {
	lambda.Start(handler)
}
