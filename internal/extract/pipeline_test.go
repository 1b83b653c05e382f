package extract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/teralink/api/schemas"
)

type fakeLayer struct {
	name    schemas.Layer
	attempt schemas.Attempt
	ran     bool
}

func (f *fakeLayer) Name() schemas.Layer { return f.name }

func (f *fakeLayer) Run(_ context.Context) schemas.Attempt {
	f.ran = true
	return f.attempt
}

func candidateFixture() *schemas.Candidate {
	return &schemas.Candidate{
		URL:         "https://d3.terabox.com/file/abc?sign=xyz&time=1",
		Filename:    "movie.mp4",
		Size:        1 << 30,
		ContentType: "video/mp4",
	}
}

func TestPipelineFirstLayerWinShortCircuits(t *testing.T) {
	first := &fakeLayer{name: schemas.LayerNetwork, attempt: schemas.Attempt{
		Outcome: schemas.OutcomeSuccess, Candidate: candidateFixture(),
	}}
	second := &fakeLayer{name: schemas.LayerJSState}
	third := &fakeLayer{name: schemas.LayerDOM}

	p := NewPipeline([]Layer{first, second, third}, nil, zap.NewNop())
	cand, layer, attempts, err := p.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, candidateFixture(), cand)
	assert.Equal(t, schemas.LayerNetwork, layer)
	assert.Len(t, attempts, 1)
	assert.False(t, second.ran)
	assert.False(t, third.ran)
}

func TestPipelineMissFallsThroughToNextLayer(t *testing.T) {
	first := &fakeLayer{name: schemas.LayerNetwork, attempt: schemas.Attempt{Outcome: schemas.OutcomeNotFound}}
	second := &fakeLayer{name: schemas.LayerJSState, attempt: schemas.Attempt{Outcome: schemas.OutcomeTimedOut}}
	third := &fakeLayer{name: schemas.LayerDOM, attempt: schemas.Attempt{
		Outcome: schemas.OutcomeSuccess, Candidate: candidateFixture(),
	}}

	p := NewPipeline([]Layer{first, second, third}, nil, zap.NewNop())
	cand, layer, attempts, err := p.Run(context.Background())

	require.NoError(t, err)
	require.NotNil(t, cand)
	assert.Equal(t, schemas.LayerDOM, layer)
	assert.Len(t, attempts, 3)
}

func TestPipelineBlockedAbortsThePass(t *testing.T) {
	first := &fakeLayer{name: schemas.LayerNetwork, attempt: schemas.Attempt{Outcome: schemas.OutcomeNotFound}}
	second := &fakeLayer{name: schemas.LayerJSState, attempt: schemas.Attempt{
		Outcome: schemas.OutcomeBlocked, Signal: "captcha-iframe",
	}}
	third := &fakeLayer{name: schemas.LayerDOM}

	p := NewPipeline([]Layer{first, second, third}, nil, zap.NewNop())
	cand, _, attempts, err := p.Run(context.Background())

	assert.Nil(t, cand)
	assert.False(t, third.ran)
	assert.Len(t, attempts, 2)

	var extractErr *schemas.ExtractError
	require.ErrorAs(t, err, &extractErr)
	assert.Equal(t, schemas.FailDetection, extractErr.Kind)
	assert.Equal(t, "captcha-iframe", extractErr.Signal)
}

func TestPipelineAllLayersMissIsNotFound(t *testing.T) {
	layers := []Layer{
		&fakeLayer{name: schemas.LayerNetwork, attempt: schemas.Attempt{Outcome: schemas.OutcomeNotFound}},
		&fakeLayer{name: schemas.LayerJSState, attempt: schemas.Attempt{Outcome: schemas.OutcomeNotFound}},
		&fakeLayer{name: schemas.LayerDOM, attempt: schemas.Attempt{Outcome: schemas.OutcomeNotFound}},
	}

	p := NewPipeline(layers, nil, zap.NewNop())
	cand, _, attempts, err := p.Run(context.Background())

	assert.Nil(t, cand)
	assert.Len(t, attempts, 3)
	assert.Equal(t, schemas.FailNotFound, schemas.KindOf(err))
}

func TestPipelineAllLayersTimedOutIsTimeout(t *testing.T) {
	layers := []Layer{
		&fakeLayer{name: schemas.LayerNetwork, attempt: schemas.Attempt{Outcome: schemas.OutcomeTimedOut}},
		&fakeLayer{name: schemas.LayerJSState, attempt: schemas.Attempt{Outcome: schemas.OutcomeTimedOut}},
		&fakeLayer{name: schemas.LayerDOM, attempt: schemas.Attempt{Outcome: schemas.OutcomeTimedOut}},
	}

	p := NewPipeline(layers, nil, zap.NewNop())
	cand, _, attempts, err := p.Run(context.Background())

	assert.Nil(t, cand)
	assert.Len(t, attempts, 3)
	assert.Equal(t, schemas.FailTimeout, schemas.KindOf(err))
}

func TestPipelineMixedTimeoutAndMissIsNotFound(t *testing.T) {
	// One layer completed its search empty-handed, so the pass as a whole
	// is a miss, not a timeout.
	layers := []Layer{
		&fakeLayer{name: schemas.LayerNetwork, attempt: schemas.Attempt{Outcome: schemas.OutcomeTimedOut}},
		&fakeLayer{name: schemas.LayerJSState, attempt: schemas.Attempt{Outcome: schemas.OutcomeNotFound}},
		&fakeLayer{name: schemas.LayerDOM, attempt: schemas.Attempt{Outcome: schemas.OutcomeTimedOut}},
	}

	p := NewPipeline(layers, nil, zap.NewNop())
	_, _, _, err := p.Run(context.Background())

	assert.Equal(t, schemas.FailNotFound, schemas.KindOf(err))
}

func TestPipelineSuccessWithoutCandidateIsTreatedAsMiss(t *testing.T) {
	broken := &fakeLayer{name: schemas.LayerNetwork, attempt: schemas.Attempt{Outcome: schemas.OutcomeSuccess}}
	rescue := &fakeLayer{name: schemas.LayerJSState, attempt: schemas.Attempt{
		Outcome: schemas.OutcomeSuccess, Candidate: candidateFixture(),
	}}

	p := NewPipeline([]Layer{broken, rescue}, nil, zap.NewNop())
	cand, layer, _, err := p.Run(context.Background())

	require.NoError(t, err)
	require.NotNil(t, cand)
	assert.Equal(t, schemas.LayerJSState, layer)
}

func TestPipelineHonorsCancelledContext(t *testing.T) {
	layer := &fakeLayer{name: schemas.LayerNetwork, attempt: schemas.Attempt{
		Outcome: schemas.OutcomeSuccess, Candidate: candidateFixture(),
	}}
	p := NewPipeline([]Layer{layer}, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, _, err := p.Run(ctx)

	assert.Equal(t, schemas.FailTimeout, schemas.KindOf(err))
	assert.False(t, layer.ran)
}

func TestPipelineAppliesPerLayerBudget(t *testing.T) {
	var sawDeadline bool
	probe := &deadlineProbe{name: schemas.LayerNetwork, saw: &sawDeadline}

	timeouts := map[schemas.Layer]time.Duration{schemas.LayerNetwork: 50 * time.Millisecond}
	p := NewPipeline([]Layer{probe}, timeouts, zap.NewNop())
	_, _, _, err := p.Run(context.Background())

	assert.True(t, sawDeadline, "layer context had no deadline")
	assert.True(t, errors.Is(err, schemas.NotFoundError()))
}

type deadlineProbe struct {
	name schemas.Layer
	saw  *bool
}

func (d *deadlineProbe) Name() schemas.Layer { return d.name }

func (d *deadlineProbe) Run(ctx context.Context) schemas.Attempt {
	_, *d.saw = ctx.Deadline()
	return schemas.Attempt{Outcome: schemas.OutcomeNotFound}
}
