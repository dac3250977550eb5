package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"golang.org/x/sync/errgroup"

	"coverletter-backend/internal/bootstrap"
	"coverletter-backend/internal/shared/config"
	"coverletter-backend/internal/shared/metrics"
	"coverletter-backend/internal/shared/telemetry"
	"coverletter-backend/internal/workerproc"
)

const (
	receiveBatchSize   = 10
	receiveWaitSeconds = 20
	receiveBackoff     = 2 * time.Second
)

func main() {
	cfg := config.Load()
	os.Exit(run(cfg))
}

func run(cfg config.Config) int {
	defer telemetry.Sync()

	queueURL := strings.TrimSpace(cfg.SQSQueueURL)
	if queueURL == "" {
		telemetry.Error("worker.config_missing", map[string]any{"key": "SQS_QUEUE_URL"})
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.AWSRegion != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.AWSRegion))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		telemetry.Error("worker.aws_config_failed", map[string]any{"error": err})
		return 1
	}

	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		telemetry.Error("worker.bootstrap_failed", map[string]any{"error": err})
		return 1
	}
	if app.DB != nil {
		defer app.DB.Close()
	}

	p := &poller{
		client:     sqs.NewFromConfig(awsCfg),
		queueURL:   queueURL,
		gen:        app.Orchestrator,
		visibility: cfg.SQSVisibilityTimeout,
	}
	telemetry.Info("worker.started", map[string]any{
		"queue":       queueURL,
		"concurrency": cfg.WorkerConcurrency,
		"visibility":  cfg.SQSVisibilityTimeout.String(),
	})

	jobs := new(errgroup.Group)
	jobs.SetLimit(cfg.WorkerConcurrency)
	p.loop(ctx, jobs)

	telemetry.Info("worker.shutdown", map[string]any{"timeout": cfg.ShutdownTimeout.String()})
	done := make(chan struct{})
	go func() {
		_ = jobs.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(cfg.ShutdownTimeout):
		telemetry.Warn("worker.shutdown_timeout", nil)
	}
	return 0
}

// poller long-polls SQS and hands each message to a bounded job group.
type poller struct {
	client     sqsAPI
	queueURL   string
	gen        workerproc.Generator
	visibility time.Duration
}

// loop polls until ctx is cancelled. jobs.Go blocks while the group is at its
// limit, so no more messages are received than can be worked.
func (p *poller) loop(ctx context.Context, jobs *errgroup.Group) {
	for ctx.Err() == nil {
		msgs, err := p.receive(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			telemetry.Error("worker.receive_failed", map[string]any{"error": err})
			select {
			case <-ctx.Done():
				return
			case <-time.After(receiveBackoff):
			}
			continue
		}
		p.dispatch(ctx, jobs, msgs)
	}
}

func (p *poller) receive(ctx context.Context) ([]sqstypes.Message, error) {
	resp, err := p.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:                    aws.String(p.queueURL),
		MaxNumberOfMessages:         receiveBatchSize,
		WaitTimeSeconds:             receiveWaitSeconds,
		VisibilityTimeout:           int32(p.visibility / time.Second),
		MessageSystemAttributeNames: []sqstypes.MessageSystemAttributeName{sqstypes.MessageSystemAttributeNameApproximateReceiveCount},
		MessageAttributeNames:       []string{"All"},
	})
	if err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// dispatch runs each message as a job. Jobs detach from ctx so a shutdown
// signal never interrupts a generation between its two checkpoints.
func (p *poller) dispatch(ctx context.Context, jobs *errgroup.Group, msgs []sqstypes.Message) {
	jobCtx := context.WithoutCancel(ctx)
	for _, msg := range msgs {
		metrics.Job(metrics.JobReceived)
		jobs.Go(func() error {
			handleMessage(jobCtx, p.client, p.queueURL, p.gen, msg)
			return nil
		})
	}
}

type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// handleMessage deletes a message once it is done or can never succeed.
// Other failures leave it for redelivery after the visibility timeout.
func handleMessage(ctx context.Context, client sqsAPI, queueURL string, gen workerproc.Generator, msg sqstypes.Message) {
	body := aws.ToString(msg.Body)
	decoded, meta, err := workerproc.ParseMessage(body)
	if err != nil {
		fields := baseFields(msg, "", "")
		fields["body_len"] = meta.BodyLen
		if meta.BodySHA != "" {
			fields["body_sha256"] = meta.BodySHA
		}
		fields["error"] = err.Error()
		var missing workerproc.ErrMissingField
		if errors.As(err, &missing) {
			fields["request_id"] = missing.RequestID
		}
		telemetry.Error("worker.coverletter.invalid_message", fields)
		if deleteMessage(ctx, client, queueURL, msg, "", "") {
			metrics.Job(metrics.JobDeletedUnrecoverable)
		}
		return
	}

	telemetry.Info("worker.coverletter.received", baseFields(msg, decoded.CoverLetterID, decoded.RequestID))

	if err := workerproc.HandleMessage(ctx, gen, decoded); err != nil {
		fields := baseFields(msg, decoded.CoverLetterID, decoded.RequestID)
		fields["error"] = err.Error()
		var procErr workerproc.ErrProcess
		if errors.As(err, &procErr) && !procErr.Retryable() {
			telemetry.Error("worker.coverletter.failed_final", fields)
			metrics.Job(metrics.JobFailed)
			if deleteMessage(ctx, client, queueURL, msg, decoded.CoverLetterID, decoded.RequestID) {
				metrics.Job(metrics.JobDeletedUnrecoverable)
			}
			return
		}
		telemetry.Error("worker.coverletter.failed", fields)
		metrics.Job(metrics.JobFailed)
		return
	}

	if deleteMessage(ctx, client, queueURL, msg, decoded.CoverLetterID, decoded.RequestID) {
		telemetry.Info("worker.coverletter.completed", baseFields(msg, decoded.CoverLetterID, decoded.RequestID))
		metrics.Job(metrics.JobCompleted)
	}
}

func deleteMessage(ctx context.Context, client sqsAPI, queueURL string, msg sqstypes.Message, coverLetterID, requestID string) bool {
	receipt := aws.ToString(msg.ReceiptHandle)
	if receipt == "" {
		fields := baseFields(msg, coverLetterID, requestID)
		fields["error"] = "missing receipt handle"
		telemetry.Error("worker.coverletter.delete_failed", fields)
		return false
	}
	if _, err := client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: aws.String(receipt),
	}); err != nil {
		fields := baseFields(msg, coverLetterID, requestID)
		fields["error"] = err.Error()
		telemetry.Error("worker.coverletter.delete_failed", fields)
		return false
	}
	return true
}

func baseFields(msg sqstypes.Message, coverLetterID, requestID string) map[string]any {
	fields := map[string]any{
		"cover_letter_id": coverLetterID,
		"sqs_message_id":  aws.ToString(msg.MessageId),
		"receive_count":   receiveCount(msg),
	}
	if strings.TrimSpace(requestID) != "" {
		fields["request_id"] = requestID
	}
	return fields
}

func receiveCount(msg sqstypes.Message) int {
	if msg.Attributes == nil {
		return 0
	}
	raw := msg.Attributes["ApproximateReceiveCount"]
	if raw == "" {
		return 0
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return parsed
}
