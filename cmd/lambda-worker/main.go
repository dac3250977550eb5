package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=amd64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-worker

import (
	"context"
	"errors"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"coverletter-backend/internal/bootstrap"
	"coverletter-backend/internal/shared/config"
	"coverletter-backend/internal/shared/metrics"
	"coverletter-backend/internal/shared/telemetry"
	"coverletter-backend/internal/workerproc"
)

var (
	initOnce sync.Once
	initErr  error
	gen      workerproc.Generator
)

func initApp() {
	cfg := config.Load()
	app, err := bootstrap.Build(context.Background(), cfg)
	if err != nil {
		initErr = err
		return
	}
	gen = app.Orchestrator
}

func handler(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	initOnce.Do(initApp)
	if initErr != nil {
		telemetry.Error("lambda_worker.bootstrap_failed", map[string]any{"error": initErr})
		failures := make([]events.SQSBatchItemFailure, 0, len(event.Records))
		for _, record := range event.Records {
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
		return events.SQSEventResponse{BatchItemFailures: failures}, initErr
	}
	return processBatch(ctx, gen, event), nil
}

// processBatch reports only retryable failures; everything else is
// acknowledged so SQS deletes it.
func processBatch(ctx context.Context, gen workerproc.Generator, event events.SQSEvent) events.SQSEventResponse {
	failures := make([]events.SQSBatchItemFailure, 0)
	for _, record := range event.Records {
		metrics.Job(metrics.JobReceived)
		fields := map[string]any{"sqs_message_id": record.MessageId}

		msg, _, err := workerproc.ParseMessage(record.Body)
		if err != nil {
			fields["error"] = err.Error()
			telemetry.Error("lambda_worker.invalid_message", fields)
			metrics.Job(metrics.JobDeletedUnrecoverable)
			continue
		}
		fields["cover_letter_id"] = msg.CoverLetterID
		fields["request_id"] = msg.RequestID

		if err := workerproc.HandleMessage(ctx, gen, msg); err != nil {
			fields["error"] = err.Error()
			metrics.Job(metrics.JobFailed)
			var procErr workerproc.ErrProcess
			if errors.As(err, &procErr) && !procErr.Retryable() {
				telemetry.Error("lambda_worker.failed_final", fields)
				continue
			}
			telemetry.Error("lambda_worker.failed", fields)
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
			continue
		}
		telemetry.Info("lambda_worker.completed", fields)
		metrics.Job(metrics.JobCompleted)
	}
	return events.SQSEventResponse{BatchItemFailures: failures}
}

func main() {
	lambda.Start(handler)
}
