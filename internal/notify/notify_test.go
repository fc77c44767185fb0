package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	awsclient "grant-intake/internal/common/aws"
	"grant-intake/internal/common/logger"
)

// ==========================
// AWS API mocks
// ==========================

type mockSES struct {
	mock.Mock
}

func (m *mockSES) SendEmail(ctx context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ses.SendEmailOutput), args.Error(1)
}

type mockSNS struct {
	mock.Mock
}

func (m *mockSNS) Publish(ctx context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sns.PublishOutput), args.Error(1)
}

func testEvent() Event {
	return Event{
		ApplicationID: "a0X1",
		FormType:      "wishlist",
		FormLabel:     "Wishlist",
		Title:         "Light client",
		FirstName:     "Ada",
		Email:         "ada@example.org",
		FileUploaded:  true,
		SubmittedAt:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

// ==========================
// Email
// ==========================

func TestEmailNotifier(t *testing.T) {
	api := &mockSES{}
	api.On("SendEmail", mock.Anything, mock.MatchedBy(func(in *ses.SendEmailInput) bool {
		return aws.ToString(in.Source) == "grants@example.org" &&
			in.Destination.ToAddresses[0] == "ada@example.org" &&
			aws.ToString(in.Message.Subject.Data) == "We received your Wishlist application"
	})).Return(&ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil)

	n := NewEmailNotifier(awsclient.NewSESClientWithAPI(api), "grants@example.org", logger.NewTestLogger(t))
	require.NoError(t, n.ApplicationSubmitted(context.Background(), testEvent()))
	api.AssertExpectations(t)
}

func TestEmailNotifier_NoAddress(t *testing.T) {
	api := &mockSES{}
	n := NewEmailNotifier(awsclient.NewSESClientWithAPI(api), "grants@example.org", logger.NewTestLogger(t))

	event := testEvent()
	event.Email = ""
	require.NoError(t, n.ApplicationSubmitted(context.Background(), event))
	api.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything)
}

func TestConfirmationBody(t *testing.T) {
	body := confirmationBody(testEvent())
	assert.Contains(t, body, "Hi Ada")
	assert.Contains(t, body, `"Light client"`)
	assert.Contains(t, body, "a0X1")
}

// ==========================
// Events
// ==========================

func TestEventNotifier(t *testing.T) {
	api := &mockSNS{}
	var published *sns.PublishInput
	api.On("Publish", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { published = args.Get(1).(*sns.PublishInput) }).
		Return(&sns.PublishOutput{MessageId: aws.String("evt-1")}, nil)

	n := NewEventNotifier(awsclient.NewSNSClientWithAPI(api), "arn:aws:sns:us-east-1:123:applications", logger.NewTestLogger(t))
	require.NoError(t, n.ApplicationSubmitted(context.Background(), testEvent()))

	require.NotNil(t, published)
	assert.Equal(t, "arn:aws:sns:us-east-1:123:applications", aws.ToString(published.TopicArn))
	assert.Equal(t, EventApplicationSubmitted, aws.ToString(published.MessageAttributes["eventType"].StringValue))

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(published.Message)), &payload))
	assert.Equal(t, "a0X1", payload["applicationId"])
	assert.NotContains(t, payload, "Email", "personal data stays out of events")
}

func TestMulti_JoinsErrors(t *testing.T) {
	sesAPI := &mockSES{}
	sesAPI.On("SendEmail", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))
	snsAPI := &mockSNS{}
	snsAPI.On("Publish", mock.Anything, mock.Anything).Return(&sns.PublishOutput{MessageId: aws.String("evt-1")}, nil)

	log := logger.NewTestLogger(t)
	multi := Multi{
		NewEmailNotifier(awsclient.NewSESClientWithAPI(sesAPI), "grants@example.org", log),
		NewEventNotifier(awsclient.NewSNSClientWithAPI(snsAPI), "arn:topic", log),
	}

	err := multi.ApplicationSubmitted(context.Background(), testEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
	snsAPI.AssertExpectations(t)
}
