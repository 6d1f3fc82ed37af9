package signals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// PingModule exists to exercise display-name derivation.
type PingModule struct {
	ModuleBase
}

func (m *PingModule) Capabilities() []Capability { return nil }

// Pinger has no conventional suffix to strip.
type Pinger struct {
	ModuleBase
}

func (m *Pinger) Capabilities() []Capability { return nil }

func TestModuleNameDerivation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		module Module
		want   string
	}{
		{name: "Module suffix stripped", module: &PingModule{}, want: "Ping"},
		{name: "no suffix unchanged", module: &Pinger{}, want: "Pinger"},
		{name: "lower-case suffix kept", module: &sinkModule{}, want: "sink"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ModuleName(tt.module))
		})
	}
}

func TestModuleBaseBeforeAttach(t *testing.T) {
	t.Parallel()
	m := &PingModule{}

	assert.False(t, m.IsAttached())
	assert.Nil(t, m.Agent())
	_, err := m.Logger()
	assert.ErrorIs(t, err, ErrModuleDetached)
}

func TestModuleBaseWhileAttached(t *testing.T) {
	t.Parallel()
	agent, logger := newTestAgent()

	m := &PingModule{}
	_, err := agent.Attach(m)
	require.NoError(t, err)

	assert.True(t, m.IsAttached())
	assert.Same(t, agent, m.Agent())

	sink, err := m.Logger()
	require.NoError(t, err)
	assert.Same(t, Logger(logger), sink)
}

func TestDetachedModuleSendFailsFast(t *testing.T) {
	t.Parallel()
	agent, _ := newTestAgent()

	m := &PingModule{}
	_, err := agent.Attach(m)
	require.NoError(t, err)
	require.NoError(t, agent.Detach(m))

	// A detached module sends through its (now nil) back-reference and
	// must fail fast rather than dispatch.
	err = Send(m.Agent(), Ping{})
	assert.ErrorIs(t, err, ErrAgentNil)
}
