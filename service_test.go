package surveysync

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-surveysync/internal/config"
	"github.com/goliatone/go-surveysync/internal/logger"
	"github.com/goliatone/go-surveysync/pkg/binding"
	"github.com/goliatone/go-surveysync/pkg/protocol"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(config.Options{Paths: []string{t.TempDir()}})
	require.NoError(t, err)
	cfg.Sync.DebounceWindow = 20 * time.Millisecond
	return cfg
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) events(t *testing.T) []protocol.Event {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []protocol.Event
	for _, line := range strings.Split(strings.TrimSpace(b.buf.String()), "\n") {
		if line == "" {
			continue
		}
		var e protocol.Event
		require.NoError(t, json.Unmarshal([]byte(line), &e))
		out = append(out, e)
	}
	return out
}

func TestServiceServesLineTransport(t *testing.T) {
	out := &lockedBuffer{}
	svc, err := NewService(context.Background(), testConfig(t), logger.NewTestLogger(t), WithEventOutput(out))
	require.NoError(t, err)
	defer svc.Close()

	input := strings.Join([]string{
		`{"type":"init","element_id":"s1","schema":{"questions":[{"name":"q1"}]}}`,
		`{"type":"command","id":"s1","kind":"data","data":{"q1":"hello"}}`,
		`{"type":"command","id":"s1","kind":"mode","mode":"display"}`,
		`{"type":"command","id":"s1","kind":"data","data":{"q1":"changed"}}`,
		`{"type":"command","id":"s1","kind":"complete"}`,
	}, "\n")
	require.NoError(t, svc.Serve(context.Background(), strings.NewReader(input)))

	events := out.events(t)
	require.Len(t, events, 1)
	assert.Equal(t, protocol.EventDataFinal, events[0].Kind)
	assert.Equal(t, map[string]any{"q1": "hello"}, events[0].Data)

	var snapshot map[string]any
	require.NoError(t, svc.Do(context.Background(), func(rt *binding.Runtime) error {
		snapshot, _ = rt.Snapshot("s1")
		return nil
	}))
	assert.Equal(t, map[string]any{"q1": "hello"}, snapshot)
}

type recordingPublisher struct {
	mu     sync.Mutex
	inputs []*sns.PublishInput
}

func (p *recordingPublisher) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inputs = append(p.inputs, params)
	return &sns.PublishOutput{}, nil
}

func TestServiceFansOutToSNS(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sync.Sinks = []string{config.SinkStdout, config.SinkSNS}
	cfg.SNS.Region = "us-east-1"
	cfg.SNS.TopicARN = "arn:aws:sns:us-east-1:1:surveys"

	out := &lockedBuffer{}
	publisher := &recordingPublisher{}
	svc, err := NewService(context.Background(), cfg, nil, WithEventOutput(out), WithSNSPublisher(publisher))
	require.NoError(t, err)
	defer svc.Close()

	input := `{"type":"init","element_id":"s1","schema":{"questions":[{"name":"q1"}]}}
{"type":"command","id":"s1","kind":"complete"}`
	require.NoError(t, svc.Serve(context.Background(), strings.NewReader(input)))

	assert.Len(t, out.events(t), 1)
	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	assert.Len(t, publisher.inputs, 1)
}

func TestServiceRejectsNilConfig(t *testing.T) {
	_, err := NewService(context.Background(), nil, nil)
	assert.Error(t, err)
}
