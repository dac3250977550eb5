package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type fakeSend struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSend) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = params
	return &sqs.SendMessageOutput{}, f.err
}

func TestSQSClientSend(t *testing.T) {
	fake := &fakeSend{}
	client := NewSQSClientWithAPI(fake, "https://sqs.local/queue")

	if err := client.Send(context.Background(), NewGenerationMessage("cl-1", "u1", "r1")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if aws.ToString(fake.input.QueueUrl) != "https://sqs.local/queue" {
		t.Fatalf("unexpected queue url %q", aws.ToString(fake.input.QueueUrl))
	}
	msg, err := DecodeMessage([]byte(aws.ToString(fake.input.MessageBody)))
	if err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if msg.CoverLetterID != "cl-1" || msg.OwnerID != "u1" {
		t.Fatalf("unexpected message %+v", msg)
	}

	attrs := fake.input.MessageAttributes
	if got := aws.ToString(attrs[AttrRequestID].StringValue); got != "r1" {
		t.Fatalf("expected requestId attribute r1, got %q", got)
	}
	if got := aws.ToString(attrs[AttrCoverLetterID].StringValue); got != "cl-1" {
		t.Fatalf("expected coverLetterId attribute cl-1, got %q", got)
	}
	if got := aws.ToString(attrs[AttrVersion].DataType); got != "Number" {
		t.Fatalf("expected numeric version attribute, got %q", got)
	}
}

func TestSQSClientSendWrapsError(t *testing.T) {
	boom := errors.New("boom")
	client := NewSQSClientWithAPI(&fakeSend{err: boom}, "q")
	if err := client.Send(context.Background(), Message{}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
	if _, ok := client.api.(*fakeSend).input.MessageAttributes[AttrRequestID]; ok {
		t.Fatalf("expected empty request id to be omitted")
	}
}

func TestNewSQSClientRequiresURL(t *testing.T) {
	if _, err := NewSQSClient(context.Background(), "  ", "us-east-1"); !errors.Is(err, ErrMissingQueueURL) {
		t.Fatalf("expected ErrMissingQueueURL, got %v", err)
	}
}
