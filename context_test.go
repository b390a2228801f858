package clipkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContext_Inheritance(t *testing.T) {
	width := 100
	root := newContext(NewGroup("tool"), nil, "tool",
		WithAutoEnvvarPrefix("TOOL"),
		WithHelpOptionNames("--help", "-h"),
		WithTerminalWidth(width),
	)
	child := newContext(NewCommand("sync"), root, "sync")

	assert.Equal(t, "TOOL", child.AutoEnvvarPrefix, "the auto-envvar prefix should inherit")
	assert.Equal(t, []string{"--help", "-h"}, child.HelpOptionNames, "help option names should inherit")
	assert.Equal(t, width, child.TerminalWidth, "the terminal width should inherit")
	assert.Equal(t, root.Stdout, child.Stdout, "streams should inherit")
	assert.Equal(t, root.Env, child.Env, "the environment resolver should inherit")

	override := newContext(NewCommand("push"), root, "push", WithAutoEnvvarPrefix("PUSH"))
	assert.Equal(t, "PUSH", override.AutoEnvvarPrefix, "a locally set value should win over the parent's")
}

func TestContext_CommandPath(t *testing.T) {
	root := newContext(NewGroup("tool"), nil, "tool")
	mid := newContext(NewGroup("remote"), root, "remote")
	leaf := newContext(NewCommand("add"), mid, "add")

	assert.Equal(t, "tool remote add", leaf.CommandPath(), "the path joins info names root-first")
	assert.Equal(t, "remote_add", leaf.commandPathKey(), "the env key drops the root name")
	assert.Equal(t, "", root.commandPathKey(), "the root's env key is empty")
	assert.Equal(t, root, leaf.Root(), "Root should walk to the top of the chain")
}

func TestContext_DefaultMapChain(t *testing.T) {
	root := newContext(NewGroup("tool"), nil, "tool", WithDefaultMap(map[string]any{
		"level": "info",
		"sync": map[string]any{
			"jobs": int64(4),
		},
	}))
	sub := newContext(NewCommand("sync"), root, "sync")

	v, ok := root.lookupDefault("level")
	require.True(t, ok, "the root map should resolve its own keys")
	assert.Equal(t, "info", v, "the stored value should be returned")

	v, ok = sub.lookupDefault("jobs")
	require.True(t, ok, "a nested map keyed by the child's name should resolve for the child")
	assert.Equal(t, int64(4), v, "the nested value should be returned")

	_, ok = sub.lookupDefault("level")
	assert.False(t, ok, "a child only sees its own nested map")

	other := newContext(NewCommand("push"), root, "push")
	_, ok = other.lookupDefault("jobs")
	assert.False(t, ok, "an unrelated child has no default map")
}

func TestContext_ScopeTeardown(t *testing.T) {
	ctx := newContext(NewCommand("t"), nil, "t")

	var order []string
	ctx.OnClose(func() { order = append(order, "first") })
	ctx.OnClose(func() { order = append(order, "second") })

	ctx.EnterScope()
	ctx.EnterScope()
	ctx.ExitScope()
	assert.Empty(t, order, "teardown must wait for the outermost scope exit")

	ctx.ExitScope()
	assert.Equal(t, []string{"second", "first"}, order, "cleanup runs in reverse order of registration")

	ctx.Close()
	assert.Len(t, order, 2, "teardown must run exactly once")
}

func TestContext_MetaSharedAcrossTree(t *testing.T) {
	root := newContext(NewGroup("tool"), nil, "tool")
	root.Meta()["db"] = "connection"

	child := newContext(NewCommand("sync"), root, "sync")
	assert.Equal(t, "connection", child.Meta()["db"], "descendants see the shared store")

	child.Meta()["cache"] = "warm"
	assert.Equal(t, "warm", root.Meta()["cache"], "the store is one object, not a copy")

	assert.Equal(t, "connection", child.EnsureMeta("db", "other"),
		"EnsureMeta must not overwrite an existing key")
	assert.Equal(t, "fresh", child.EnsureMeta("new", "fresh"), "EnsureMeta stores absent keys")
}

func TestContext_ProvenanceRecording(t *testing.T) {
	ctx := newContext(NewCommand("t"), nil, "t")

	assert.Equal(t, SourceNone, ctx.ProvenanceOf("missing"), "unresolved names report no source")

	ctx.SetProvenance("level", SourceEnvironment)
	assert.Equal(t, SourceEnvironment, ctx.ProvenanceOf("level"), "the recorded source should be returned")
	assert.Equal(t, "environment", SourceEnvironment.String(), "sources render human-readable names")
}
