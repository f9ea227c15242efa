package notify_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"easylist/internal/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, n notify.Completion) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

var notice = notify.Completion{
	ListName:          "Groceries",
	AuthorEmail:       "ann@example.com",
	AuthorUsername:    "ann",
	CompleterUsername: "bob",
}

func newDispatcher(sender notify.Sender, buf *bytes.Buffer, queueSize int) *notify.Dispatcher {
	logger := slog.New(slog.NewTextHandler(buf, nil))
	return notify.NewDispatcher(sender, logger, notify.DispatcherConfig{
		Workers:   2,
		QueueSize: queueSize,
		Attempts:  3,
		Delay:     time.Millisecond,
	})
}

func TestDispatcher_Delivers(t *testing.T) {
	sender := new(MockSender)
	sender.On("Send", mock.Anything, notice).Return(nil).Once()

	var buf bytes.Buffer
	d := newDispatcher(sender, &buf, 10)
	d.Start(context.Background())

	d.NotifyCompletion(context.Background(), notice)
	d.Close()

	sender.AssertExpectations(t)
	assert.NotContains(t, buf.String(), "not delivered")
}

func TestDispatcher_RetriesThenLogs(t *testing.T) {
	sender := new(MockSender)
	sender.On("Send", mock.Anything, notice).Return(errors.New("smtp unavailable"))

	var buf bytes.Buffer
	d := newDispatcher(sender, &buf, 10)
	d.Start(context.Background())

	d.NotifyCompletion(context.Background(), notice)
	d.Close()

	sender.AssertNumberOfCalls(t, "Send", 3)
	assert.Contains(t, buf.String(), "completion notice not delivered")
	assert.Contains(t, buf.String(), "smtp unavailable")
}

func TestDispatcher_RecoversOnRetry(t *testing.T) {
	sender := new(MockSender)
	sender.On("Send", mock.Anything, notice).Return(errors.New("temporary")).Once()
	sender.On("Send", mock.Anything, notice).Return(nil).Once()

	var buf bytes.Buffer
	d := newDispatcher(sender, &buf, 10)
	d.Start(context.Background())

	d.NotifyCompletion(context.Background(), notice)
	d.Close()

	sender.AssertNumberOfCalls(t, "Send", 2)
	assert.Contains(t, buf.String(), "retrying completion notice")
	assert.NotContains(t, buf.String(), "not delivered")
}

func TestDispatcher_DropsWhenQueueFull(t *testing.T) {
	sender := new(MockSender)
	sender.On("Send", mock.Anything, notice).Return(nil)

	var buf bytes.Buffer
	d := newDispatcher(sender, &buf, 1)

	// workers not started yet, so the second notice cannot be queued
	d.NotifyCompletion(context.Background(), notice)
	d.NotifyCompletion(context.Background(), notice)
	assert.Contains(t, buf.String(), "queue full")

	d.Start(context.Background())
	d.Close()

	sender.AssertNumberOfCalls(t, "Send", 1)
}

func TestDispatcher_NotifyAfterClose(t *testing.T) {
	sender := new(MockSender)

	var buf bytes.Buffer
	d := newDispatcher(sender, &buf, 1)
	d.Start(context.Background())
	d.Close()
	d.Close()

	assert.NotPanics(t, func() {
		d.NotifyCompletion(context.Background(), notice)
	})
	assert.Contains(t, buf.String(), "dispatcher closed")
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}
