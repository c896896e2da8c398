package transport

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSNS struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *mockSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

func TestSNSSinkPublishes(t *testing.T) {
	var captured *sns.PublishInput
	client := &mockSNS{PublishFunc: func(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
		captured = params
		return &sns.PublishOutput{MessageId: aws.String("m-1")}, nil
	}}

	sink := NewSNSSink(client, "arn:aws:sns:us-east-1:123456789012:surveys")
	require.NoError(t, sink.Emit(context.Background(), sampleEvent()))

	require.NotNil(t, captured)
	assert.Equal(t, "arn:aws:sns:us-east-1:123456789012:surveys", aws.ToString(captured.TopicArn))
	assert.Equal(t, "s1_data", aws.ToString(captured.Subject))
	assert.Contains(t, aws.ToString(captured.Message), `"kind":"data_final"`)
	assert.Equal(t, "data_final", aws.ToString(captured.MessageAttributes["kind"].StringValue))
	assert.Equal(t, "s1", aws.ToString(captured.MessageAttributes["instance"].StringValue))
}

func TestSNSSinkWrapsFailure(t *testing.T) {
	client := &mockSNS{PublishFunc: func(context.Context, *sns.PublishInput, ...func(*sns.Options)) (*sns.PublishOutput, error) {
		return nil, errors.New("SNS service unavailable")
	}}
	err := NewSNSSink(client, "arn").Emit(context.Background(), sampleEvent())
	assert.ErrorContains(t, err, "sns publish")
}
