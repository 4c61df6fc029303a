package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Goden-Gun/adt-lib/pkg/adt"
	"github.com/Goden-Gun/adt-lib/pkg/connection"
)

type message struct {
	topic string
	key   string
	value []byte
}

type fakePublisher struct {
	sent []message
	err  error
}

func (p *fakePublisher) Publish(_ context.Context, topic string, key, value []byte) error {
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, message{topic: topic, key: string(key), value: value})
	return nil
}

func TestReport_Classified(t *testing.T) {
	pub := &fakePublisher{}
	r := NewReporter(pub, "adt.errors")
	r.now = func() time.Time { return time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC) }

	se, err := adt.Classify(adt.ExceptionXMLFragment +
		`<namespace id="com.sap.adt"/><type id="ExceptionResourceAlreadyExists"/>` +
		`<message lang="EN">Resource ZCL_A already exists</message></exc:exception>`)
	require.NoError(t, err)

	require.NoError(t, r.Report(context.Background(), se, "POST", "oo/classes", 400))
	require.Len(t, pub.sent, 1)
	assert.Equal(t, "adt.errors", pub.sent[0].topic)
	assert.Equal(t, adt.KindResourceAlreadyExists, pub.sent[0].key)

	var ev ErrorEvent
	require.NoError(t, json.Unmarshal(pub.sent[0].value, &ev))
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, adt.NamespaceADT, ev.Namespace)
	assert.Equal(t, "Resource ZCL_A already exists", ev.Message)
	assert.Equal(t, 400, ev.StatusCode)
	assert.True(t, ev.Time.Equal(time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)))
}

func TestReport_Malformed(t *testing.T) {
	pub := &fakePublisher{}
	r := NewReporter(pub, "")

	_, err := adt.Classify(adt.ExceptionXMLFragment + `</exc:exception>`)
	require.Error(t, err)

	require.NoError(t, r.Report(context.Background(), err, "GET", "x", 500))
	require.Len(t, pub.sent, 1)
	assert.Equal(t, KindMalformed, pub.sent[0].key)
}

func TestReport_IgnoresOtherErrors(t *testing.T) {
	pub := &fakePublisher{}
	r := NewReporter(pub, "t")

	assert.NoError(t, r.Report(context.Background(), nil, "GET", "x", 200))
	assert.NoError(t, r.Report(context.Background(), &adt.HTTPRequestError{StatusCode: 502}, "GET", "x", 502))
	assert.NoError(t, r.Report(context.Background(), errors.New("dial tcp"), "GET", "x", 0))
	assert.Empty(t, pub.sent)
}

func TestObserveRequest_PublishFailureIsSwallowed(t *testing.T) {
	pub := &fakePublisher{err: errors.New("out of brokers")}
	r := NewReporter(pub, "t")

	se := &adt.ResourceNotFoundError{Descriptor: adt.Descriptor{Kind: adt.KindResourceNotFound}}
	assert.NotPanics(t, func() {
		r.ObserveRequest(context.Background(), connection.RequestInfo{Method: "GET", StatusCode: 404, Err: se})
	})
	assert.Error(t, r.Report(context.Background(), se, "GET", "x", 404))
}
