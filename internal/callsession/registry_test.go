package callsession

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_Lifecycle(t *testing.T) {
	registry := NewRegistry()

	session := registry.OnCallStart("CA123", "+15550001111")
	assert.Equal(t, "CA123", session.CallID)
	assert.Equal(t, "+15550001111", session.CallerPhone)
	assert.Empty(t, session.TicketRef)

	got, ok := registry.Get("CA123")
	assert.True(t, ok)
	assert.Equal(t, "CA123", got.CallID)

	registry.OnCallEnd("CA123")
	_, ok = registry.Get("CA123")
	assert.False(t, ok)
}

func TestRegistry_RestartCreatesFreshSession(t *testing.T) {
	registry := NewRegistry()

	registry.OnCallStart("CA123", "+15550001111")
	registry.SetTicketRef("CA123", "conv-42")
	registry.OnCallEnd("CA123")

	// A new call reusing the id must carry no residual state.
	session := registry.OnCallStart("CA123", "+15550002222")
	assert.Equal(t, "+15550002222", session.CallerPhone)
	assert.Empty(t, session.TicketRef)
	assert.False(t, session.TicketAttempted)
}

func TestRegistry_DuplicateStartReplaces(t *testing.T) {
	registry := NewRegistry()

	registry.OnCallStart("CA123", "+15550001111")
	registry.SetTicketRef("CA123", "conv-42")
	registry.OnCallStart("CA123", "+15550003333")

	got, ok := registry.Get("CA123")
	assert.True(t, ok)
	assert.Equal(t, "+15550003333", got.CallerPhone)
	assert.Empty(t, got.TicketRef)
	assert.Equal(t, 1, registry.Active())
}

func TestRegistry_TicketAttemptedWithoutRef(t *testing.T) {
	registry := NewRegistry()

	registry.OnCallStart("CA123", "")
	registry.MarkTicketAttempted("CA123")

	got, _ := registry.Get("CA123")
	assert.True(t, got.TicketAttempted)
	assert.Empty(t, got.TicketRef)
}

func TestRegistry_EndUnknownCallIsNoop(t *testing.T) {
	registry := NewRegistry()
	registry.OnCallEnd("CA999")
	assert.Equal(t, 0, registry.Active())
}

func TestRegistry_ConcurrentDistinctCalls(t *testing.T) {
	registry := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			callID := fmt.Sprintf("CA%03d", i)
			registry.OnCallStart(callID, "")
			registry.SetTicketRef(callID, fmt.Sprintf("conv-%d", i))
			got, ok := registry.Get(callID)
			assert.True(t, ok)
			assert.Equal(t, fmt.Sprintf("conv-%d", i), got.TicketRef)
			registry.OnCallEnd(callID)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, registry.Active())
}
