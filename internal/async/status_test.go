package async

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProgress(t *testing.T) {
	// Given/When: creating a new progress tracker
	p := NewProgress()

	// Then: it is pending with no outcomes
	require.NotNil(t, p)
	snap := p.Snapshot()
	assert.Equal(t, string(StatusPending), snap.Status)
	assert.Zero(t, snap.Passes)
	assert.Empty(t, snap.Outcomes)
	assert.False(t, p.IsReady())
}

func TestProgress_SuccessfulPass(t *testing.T) {
	p := NewProgress()

	p.BeginPass()
	p.BeginLanguage("MOVIE", "ES")
	assert.Equal(t, string(StatusIndexing), p.Snapshot().Status)
	assert.Equal(t, "MOVIE/ES", p.Snapshot().Current)

	p.RecordSuccess("MOVIE", "ES", 12, 40*time.Millisecond)
	p.RecordSuccess("MOVIE", "EN", 7, time.Millisecond)
	p.EndPass()

	snap := p.Snapshot()
	assert.Equal(t, string(StatusReady), snap.Status)
	assert.Equal(t, 1, snap.Passes)
	assert.Empty(t, snap.Current)
	require.Len(t, snap.Outcomes, 2)
	assert.Equal(t, "EN", snap.Outcomes[0].Language)
	assert.Equal(t, 7, snap.Outcomes[0].Documents)
	assert.Equal(t, int64(40), snap.Outcomes[1].DurationMS)
	assert.True(t, p.IsReady())
}

func TestProgress_FailureKeepsPreviousCount(t *testing.T) {
	// Given: a language that rebuilt once
	p := NewProgress()
	p.BeginPass()
	p.RecordSuccess("TV", "EN", 5, 0)
	p.EndPass()

	// When: the next pass fails for it
	p.BeginPass()
	p.RecordFailure("TV", "EN", fmt.Errorf("catalog unavailable"))
	p.EndPass()

	// Then: the pass is degraded and the serving count is preserved
	snap := p.Snapshot()
	assert.Equal(t, string(StatusDegraded), snap.Status)
	assert.Equal(t, 1, snap.Failures)
	require.Len(t, snap.Outcomes, 1)
	assert.Equal(t, 5, snap.Outcomes[0].Documents)
	assert.Equal(t, "catalog unavailable", snap.Outcomes[0].ErrorMessage)
}

func TestProgress_FailuresResetEachPass(t *testing.T) {
	p := NewProgress()
	p.BeginPass()
	p.RecordFailure("GAME", "ES", fmt.Errorf("x"))
	p.EndPass()

	p.BeginPass()
	p.RecordSuccess("GAME", "ES", 1, 0)
	p.EndPass()

	snap := p.Snapshot()
	assert.Equal(t, string(StatusReady), snap.Status)
	assert.Zero(t, snap.Failures)
	assert.Empty(t, snap.Outcomes[0].ErrorMessage)
	assert.Equal(t, 2, snap.Passes)
}

func TestProgress_ConcurrentAccess(t *testing.T) {
	p := NewProgress()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			p.RecordSuccess("MOVIE", fmt.Sprintf("L%d", i), i, 0)
		}(i)
		go func() {
			defer wg.Done()
			_ = p.Snapshot()
		}()
	}
	wg.Wait()

	assert.Len(t, p.Snapshot().Outcomes, 10)
}
