package publishers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/samvad-hq/marketplace-items/internal/domain"
	"github.com/samvad-hq/marketplace-items/pkg/items"
)

type fakeSNSClient struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNSClient) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("msg-123")}, nil
}

func TestSNSPublisherPublishSuccess(t *testing.T) {
	client := &fakeSNSClient{}
	pub := &snsPublisher{
		id:       "topic",
		topicARN: "arn:aws:sns:::items",
		client:   client,
		log:      noopLogger{},
	}

	err := pub.Publish(context.Background(), Event{
		Action: domain.ActionCreated,
		ItemID: "item-1",
		Item:   &items.Item{ID: "item-1", Product: "Aluminum Cans"},
	})
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if client.input == nil {
		t.Fatalf("client was not called")
	}
	if got := aws.ToString(client.input.TopicArn); got != "arn:aws:sns:::items" {
		t.Fatalf("TopicArn = %s", got)
	}
	attr, ok := client.input.MessageAttributes["item_id"]
	if !ok || aws.ToString(attr.StringValue) != "item-1" {
		t.Fatalf("item_id attribute missing or wrong: %#v", attr)
	}
	if aws.ToString(attr.DataType) != "String" {
		t.Fatalf("DataType should be String, got %#v", attr.DataType)
	}
	if action := client.input.MessageAttributes["action"]; aws.ToString(action.StringValue) != "item.created" {
		t.Fatalf("action attribute = %#v", action)
	}
	if !strings.Contains(aws.ToString(client.input.Message), `"Product":"Aluminum Cans"`) {
		t.Fatalf("Message missing item: %s", aws.ToString(client.input.Message))
	}
}

func TestSNSPublisherSkipsEmptyAttributes(t *testing.T) {
	client := &fakeSNSClient{}
	pub := &snsPublisher{topicARN: "arn", client: client, log: noopLogger{}}

	if err := pub.Publish(context.Background(), Event{Action: domain.ActionDeleted}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if _, ok := client.input.MessageAttributes["item_id"]; ok {
		t.Fatalf("empty item_id should not be sent")
	}
}

func TestSNSPublisherPublishError(t *testing.T) {
	client := &fakeSNSClient{err: errors.New("boom")}
	pub := &snsPublisher{topicARN: "arn", client: client, log: noopLogger{}}

	if err := pub.Publish(context.Background(), Event{ItemID: "item-1"}); err == nil {
		t.Fatalf("expected error from Publish")
	}
}

func TestNewSNSPublisherRequiresConfig(t *testing.T) {
	if _, err := newSNSPublisher(context.Background(), PublisherConfig{ID: "x", Type: TypeSNS}, nil); err == nil {
		t.Fatalf("expected error for missing sns block")
	}
}
