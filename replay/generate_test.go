package replay

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FREDSAYS-dev/Thesis/arena"
	"github.com/FREDSAYS-dev/Thesis/npc"
)

func baseEpisodeSpec() EpisodeSpec {
	return EpisodeSpec{
		Arena: arena.DefaultConfig(),
		Agents: []AgentSpec{
			{Name: "hero", Role: npc.RoleMain},
			{Name: "rival", Role: npc.RoleCompetitive},
		},
		Seed: 7,
	}
}

func TestRecordEpisode_IsDeterministic(t *testing.T) {
	spec := baseEpisodeSpec()
	spec.Agents[1].Randomness = 0.5

	tapeA, err := RecordEpisode(spec)
	require.NoError(t, err)
	tapeB, err := RecordEpisode(spec)
	require.NoError(t, err)

	assert.Equal(t, tapeA, tapeB)
	assert.NotEmpty(t, tapeA.Steps)
	_, err = uuid.Parse(tapeA.EpisodeID)
	assert.NoError(t, err)
}

func TestRecordEpisode_ScriptedRace(t *testing.T) {
	tape, err := RecordEpisode(baseEpisodeSpec())
	require.NoError(t, err)

	// hero walks 0→4 in four steps; rival retreats from 2 to the wall.
	hero := tape.Trajectory(0)
	require.Len(t, hero, 4)
	for _, s := range hero {
		assert.Equal(t, arena.ActionRight, s.Action)
	}
	last := hero[len(hero)-1]
	assert.True(t, last.Done)
	assert.Empty(t, last.NextLegal)
	assert.Equal(t, 1.0, last.Reward)
	// They collide on cell 1 in the first step.
	assert.Equal(t, 0.0, tape.Returns[0])
	assert.Equal(t, -1.0, tape.Returns[1])

	for _, s := range tape.Trajectory(1) {
		assert.Equal(t, arena.ActionLeft, s.Action)
	}
	assert.False(t, tape.Truncated)
	assert.Equal(t, hero[0].Next, hero[1].Context)
}

func TestRecordEpisode_ReturnsReplayErrorOnAgentMismatch(t *testing.T) {
	spec := baseEpisodeSpec()
	spec.Agents = spec.Agents[:1]

	_, err := RecordEpisode(spec)
	var replayErr *ReplayError
	require.True(t, errors.As(err, &replayErr))
	assert.Equal(t, "agent_count_mismatch", replayErr.Reason)
	assert.Equal(t, -1, replayErr.StepIndex)
}

func TestRecordEpisode_RejectsUnknownRole(t *testing.T) {
	spec := baseEpisodeSpec()
	spec.Agents[0].Role = "villain"

	_, err := RecordEpisode(spec)
	var replayErr *ReplayError
	require.True(t, errors.As(err, &replayErr))
	assert.Equal(t, "invalid_agent", replayErr.Reason)
}

func TestRecordEpisode_StepLimitTruncates(t *testing.T) {
	spec := baseEpisodeSpec()
	spec.Arena.MaxSteps = 0
	spec.Agents[0].Role = npc.RoleCompetitive
	spec.StepLimit = 3

	tape, err := RecordEpisode(spec)
	require.NoError(t, err)
	assert.True(t, tape.Truncated)
	assert.Len(t, tape.Steps, 6)
}

func TestRecordEpisodes_DistinctIDs(t *testing.T) {
	tapes, err := RecordEpisodes(baseEpisodeSpec(), 3)
	require.NoError(t, err)
	require.Len(t, tapes, 3)
	assert.NotEqual(t, tapes[0].EpisodeID, tapes[1].EpisodeID)
	assert.NotEqual(t, tapes[1].EpisodeID, tapes[2].EpisodeID)
}

func TestWriteReadFile(t *testing.T) {
	tapes, err := RecordEpisodes(baseEpisodeSpec(), 2)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "tapes.json")
	require.NoError(t, WriteFile(path, tapes))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, tapes, got)
}

func TestReadFile_RejectsUnknownVersion(t *testing.T) {
	tape, err := RecordEpisode(baseEpisodeSpec())
	require.NoError(t, err)
	tape.TapeVersion = 99

	path := filepath.Join(t.TempDir(), "tapes.json")
	require.NoError(t, WriteFile(path, []*Tape{tape}))

	_, err = ReadFile(path)
	assert.ErrorContains(t, err, "unsupported version")
}

func TestToWireTape(t *testing.T) {
	tape, err := RecordEpisode(baseEpisodeSpec())
	require.NoError(t, err)

	wire := ToWireTape(tape)
	require.NotNil(t, wire)
	assert.Equal(t, []string{"hero", "rival"}, wire.Agents)
	assert.Len(t, wire.Steps, len(tape.Steps))
	assert.Equal(t, string(tape.Steps[0].Context), wire.Steps[0].Context)
	assert.Nil(t, ToWireTape(nil))
}
