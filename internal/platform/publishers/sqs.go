package publishers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/Apurer/go-gin-procurement-api/internal/shared/events"
)

// SQSAPI is the subset of the SQS client used for publishing.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSPublisher sends each status change as one SQS message. The aggregate
// and target status travel as message attributes for subscription filters.
type SQSPublisher struct {
	client   SQSAPI
	queueURL string
}

func NewSQSPublisher(client SQSAPI, queueURL string) *SQSPublisher {
	return &SQSPublisher{client: client, queueURL: queueURL}
}

// NewSQSClient loads the default AWS credential chain for region.
func NewSQSClient(ctx context.Context, region string) (*sqs.Client, error) {
	if region == "" {
		region = "us-east-1"
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return sqs.NewFromConfig(cfg), nil
}

func (p *SQSPublisher) Publish(ctx context.Context, event events.StatusChanged) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode status change: %w", err)
	}
	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"aggregate": {DataType: aws.String("String"), StringValue: aws.String(event.Aggregate)},
			"status":    {DataType: aws.String("String"), StringValue: aws.String(event.To)},
		},
	}
	if _, err := p.client.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("send status change to SQS: %w", err)
	}
	return nil
}

var _ events.Publisher = (*SQSPublisher)(nil)
