package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// ErrMissingQueueURL is returned when no SQS queue is configured.
var ErrMissingQueueURL = errors.New("SQS_QUEUE_URL is required")

// Message attribute names carried alongside the JSON body so operators can
// correlate jobs without decoding them.
const (
	AttrRequestID     = "requestId"
	AttrCoverLetterID = "coverLetterId"
	AttrVersion       = "version"
)

// Client enqueues generation jobs.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// SendAPI is the subset of the SQS client used for publishing.
type SendAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSClient publishes generation jobs to AWS SQS.
type SQSClient struct {
	api      SendAPI
	queueURL string
}

// NewSQSClient loads the default AWS config and targets queueURL.
func NewSQSClient(ctx context.Context, queueURL, region string) (*SQSClient, error) {
	queueURL = strings.TrimSpace(queueURL)
	if queueURL == "" {
		return nil, ErrMissingQueueURL
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if r := strings.TrimSpace(region); r != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(r))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewSQSClientWithAPI(sqs.NewFromConfig(cfg), queueURL), nil
}

// NewSQSClientWithAPI wraps an existing SQS client.
func NewSQSClientWithAPI(api SendAPI, queueURL string) *SQSClient {
	return &SQSClient{api: api, queueURL: queueURL}
}

// Send publishes msg as a JSON body with correlation attributes.
func (s *SQSClient) Send(ctx context.Context, msg Message) error {
	payload, err := EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encode generation job: %w", err)
	}

	_, err = s.api.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:          aws.String(s.queueURL),
		MessageBody:       aws.String(string(payload)),
		MessageAttributes: messageAttributes(msg),
	})
	if err != nil {
		return fmt.Errorf("enqueue cover letter %s: %w", msg.CoverLetterID, err)
	}
	return nil
}

func messageAttributes(msg Message) map[string]sqstypes.MessageAttributeValue {
	attrs := map[string]sqstypes.MessageAttributeValue{
		AttrVersion: {
			DataType:    aws.String("Number"),
			StringValue: aws.String(strconv.Itoa(msg.Version)),
		},
	}
	if msg.CoverLetterID != "" {
		attrs[AttrCoverLetterID] = stringAttr(msg.CoverLetterID)
	}
	if msg.RequestID != "" {
		attrs[AttrRequestID] = stringAttr(msg.RequestID)
	}
	return attrs
}

func stringAttr(v string) sqstypes.MessageAttributeValue {
	return sqstypes.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(v)}
}

var _ Client = (*SQSClient)(nil)
