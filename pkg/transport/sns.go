package transport

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/goliatone/go-surveysync/pkg/protocol"
)

// SNSPublisher is the part of *sns.Client the sink needs.
type SNSPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// NewSNSClient loads the default AWS configuration for region.
func NewSNSClient(ctx context.Context, region string) (*sns.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("transport: load aws config: %w", err)
	}
	return sns.NewFromConfig(cfg), nil
}

// SNSSink publishes events to a topic. The instance id and event kind travel
// as message attributes so subscribers can filter.
type SNSSink struct {
	client   SNSPublisher
	topicARN string
}

// NewSNSSink publishes to topicARN.
func NewSNSSink(client SNSPublisher, topicARN string) *SNSSink {
	return &SNSSink{client: client, topicARN: topicARN}
}

// Emit implements protocol.EventSink.
func (s *SNSSink) Emit(ctx context.Context, event protocol.Event) error {
	raw, err := protocol.MarshalEvent(event)
	if err != nil {
		return err
	}
	_, err = s.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Message:  aws.String(string(raw)),
		Subject:  aws.String(event.Input),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"instance": {DataType: aws.String("String"), StringValue: aws.String(event.ID)},
			"kind":     {DataType: aws.String("String"), StringValue: aws.String(string(event.Kind))},
		},
	})
	if err != nil {
		return fmt.Errorf("transport: sns publish: %w", err)
	}
	return nil
}
