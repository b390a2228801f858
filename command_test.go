package clipkit_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipkit/clipkit"
	"github.com/clipkit/clipkit/errs"
	"github.com/clipkit/clipkit/testrun"
)

// echoCommand builds a leaf command whose callback returns its resolved
// parameter map, so tests can assert on final values directly.
func echoCommand(t *testing.T, name string, params ...*clipkit.Param) *clipkit.Command {
	t.Helper()
	cmd := clipkit.NewCommand(name)
	for _, p := range params {
		require.NoError(t, cmd.AddParam(p), "parameter %s should attach", p.Name)
	}
	require.NoError(t, cmd.Set(clipkit.WithCommandCallback(func(ctx *clipkit.Context) (any, error) {
		return ctx.Params, nil
	})), "callback should configure")

	return cmd
}

func resolvedParams(t *testing.T, res *testrun.Result) map[string]any {
	t.Helper()
	require.NoError(t, res.Err, "invocation should succeed, stderr: %s", res.Stderr)
	params, ok := res.ReturnValue.(map[string]any)
	require.True(t, ok, "the callback should return the parameter map")

	return params
}

func TestCommand_BasicInvocation(t *testing.T) {
	level := clipkit.NewOption("--level", "-l")
	require.NoError(t, level.Set(clipkit.WithParamType(clipkit.IntType{}), clipkit.WithDefault(int64(0))))
	src := clipkit.NewArgument("src")
	cmd := echoCommand(t, "copy", level, src)

	res := testrun.New().Invoke(cmd, []string{"-l", "3", "input.txt"})
	params := resolvedParams(t, res)
	assert.Equal(t, int64(3), params["level"], "the option should be converted to its declared type")
	assert.Equal(t, "input.txt", params["src"], "the positional should resolve from the command line")
	assert.Equal(t, 0, res.ExitCode, "a successful run exits zero")
}

func TestCommand_ResolutionPrecedence(t *testing.T) {
	level := clipkit.NewOption("--level")
	require.NoError(t, level.Set(clipkit.WithEnvVars("APP_LEVEL"), clipkit.WithDefault("D")))
	cmd := echoCommand(t, "app", level)

	runner := testrun.New()
	runner.Env["APP_LEVEL"] = "E"

	params := resolvedParams(t, runner.Invoke(cmd, []string{"--level", "C"}))
	assert.Equal(t, "C", params["level"], "an explicit command-line value beats the environment")

	params = resolvedParams(t, runner.Invoke(cmd, nil))
	assert.Equal(t, "E", params["level"], "the environment beats the static default")

	delete(runner.Env, "APP_LEVEL")
	params = resolvedParams(t, runner.Invoke(cmd, nil))
	assert.Equal(t, "D", params["level"], "the static default is the last resort")
}

func TestCommand_EmptyEnvValueIsAbsent(t *testing.T) {
	level := clipkit.NewOption("--level")
	require.NoError(t, level.Set(clipkit.WithEnvVars("APP_LEVEL"), clipkit.WithDefault("D")))
	cmd := echoCommand(t, "app", level)

	runner := testrun.New()
	runner.Env["APP_LEVEL"] = ""

	params := resolvedParams(t, runner.Invoke(cmd, nil))
	assert.Equal(t, "D", params["level"], "an empty environment value must resolve like an unset one")
}

func TestCommand_DefaultMapPrecedence(t *testing.T) {
	level := clipkit.NewOption("--level")
	require.NoError(t, level.Set(clipkit.WithEnvVars("APP_LEVEL"), clipkit.WithDefault("D")))
	cmd := echoCommand(t, "app", level)

	runner := testrun.New()
	params := resolvedParams(t, runner.Invoke(cmd, nil,
		clipkit.WithDefaultMap(map[string]any{"level": "M"})))
	assert.Equal(t, "M", params["level"], "the default map beats the static default")

	runner.Env["APP_LEVEL"] = "E"
	params = resolvedParams(t, runner.Invoke(cmd, nil,
		clipkit.WithDefaultMap(map[string]any{"level": "M"})))
	assert.Equal(t, "E", params["level"], "the environment beats the default map")
}

func TestCommand_MultipleAccumulatesInOrder(t *testing.T) {
	tag := clipkit.NewOption("--tag", "-t")
	require.NoError(t, tag.Set(clipkit.WithMultiple()))
	other := clipkit.NewFlag("--quiet")
	cmd := echoCommand(t, "build", tag, other)

	params := resolvedParams(t, testrun.New().Invoke(cmd,
		[]string{"-t", "a", "--quiet", "--tag", "b", "-t", "c"}))
	assert.Equal(t, []any{"a", "b", "c"}, params["tag"],
		"repeats accumulate in command-line order regardless of interleaving")
}

func TestCommand_SecondaryFlagLastTokenWins(t *testing.T) {
	color := clipkit.NewFlag("--color/--no-color")
	cmd := echoCommand(t, "render", color)

	params := resolvedParams(t, testrun.New().Invoke(cmd, []string{"--color", "--no-color"}))
	assert.Equal(t, false, params["color"], "the negative form wins when it comes last")

	params = resolvedParams(t, testrun.New().Invoke(cmd, []string{"--no-color", "--color"}))
	assert.Equal(t, true, params["color"], "the positive form wins when it comes last")
}

func TestCommand_CountOption(t *testing.T) {
	verbose := clipkit.NewCountOption("-v", "--verbose")
	cmd := echoCommand(t, "app", verbose)

	params := resolvedParams(t, testrun.New().Invoke(cmd, []string{"-vvv"}))
	assert.Equal(t, int64(3), params["verbose"], "a clustered counter counts each occurrence")

	params = resolvedParams(t, testrun.New().Invoke(cmd, nil))
	assert.Equal(t, int64(0), params["verbose"], "an absent counter resolves to its zero default")
}

func TestCommand_MissingRequired(t *testing.T) {
	src := clipkit.NewArgument("src")
	cmd := echoCommand(t, "copy", src)

	res := testrun.New().Invoke(cmd, nil)
	require.Error(t, res.Err, "a required argument with no value must fail")
	assert.True(t, errors.Is(res.Err, errs.ErrMissingParam), "error should be the missing-parameter kind")
	assert.Equal(t, 2, res.ExitCode, "usage-class failures exit with 2")
	assert.Contains(t, res.Stderr, "Usage:", "the formatted message should include the usage line")
	assert.Contains(t, res.Stderr, "src", "the message should name the missing parameter")
}

func TestCommand_UnknownOptionVersusPassthrough(t *testing.T) {
	verbose := clipkit.NewFlag("--verbose")
	cmd := echoCommand(t, "app", verbose)

	res := testrun.New().Invoke(cmd, []string{"--bogus"})
	require.Error(t, res.Err, "unknown options fail by default")
	assert.True(t, errors.Is(res.Err, errs.ErrNoSuchOption), "error should be the no-such-option kind")
	assert.Contains(t, res.Stderr, "--bogus", "the message should name the unknown option")
	assert.Equal(t, 2, res.ExitCode, "unknown options are usage errors")

	passthrough := clipkit.NewCommand("app")
	require.NoError(t, passthrough.AddParam(clipkit.NewFlag("--verbose")))
	require.NoError(t, passthrough.Set(
		clipkit.SetIgnoreUnknownOptions(true),
		clipkit.SetAllowExtraArgs(true),
		clipkit.WithCommandCallback(func(ctx *clipkit.Context) (any, error) {
			return ctx.Args, nil
		})))

	res = testrun.New().Invoke(passthrough, []string{"--bogus"})
	require.NoError(t, res.Err, "ignore-unknown should tolerate the token")
	assert.Equal(t, []string{"--bogus"}, res.ReturnValue, "the token should survive verbatim as a leftover")
}

func TestCommand_ExtraArgumentsRejected(t *testing.T) {
	cmd := echoCommand(t, "app")

	res := testrun.New().Invoke(cmd, []string{"stray"})
	require.Error(t, res.Err, "unclaimed tokens fail on a strict command")
	assert.True(t, errors.Is(res.Err, errs.ErrUnexpectedArgument), "error should be the extra-argument kind")
	assert.Contains(t, res.Err.Error(), "stray", "the message should name the extra token")
	assert.Equal(t, 2, res.ExitCode, "extra arguments are usage errors")
}

func TestCommand_CallbackTransformsValue(t *testing.T) {
	level := clipkit.NewOption("--level")
	require.NoError(t, level.Set(
		clipkit.WithDefault("info"),
		clipkit.WithCallback(func(ctx *clipkit.Context, p *clipkit.Param, value any) (any, error) {
			return fmt.Sprintf("[%v]", value), nil
		})))
	cmd := echoCommand(t, "app", level)

	params := resolvedParams(t, testrun.New().Invoke(cmd, nil))
	assert.Equal(t, "[info]", params["level"],
		"the callback runs even for defaulted values and may transform them")
}

func TestCommand_EagerParamsResolveFirst(t *testing.T) {
	var order []string
	record := func(name string) clipkit.ParamCallback {
		return func(ctx *clipkit.Context, p *clipkit.Param, value any) (any, error) {
			order = append(order, name)
			return value, nil
		}
	}

	late := clipkit.NewFlag("--late")
	require.NoError(t, late.Set(clipkit.WithCallback(record("late"))))
	early := clipkit.NewFlag("--early")
	require.NoError(t, early.Set(clipkit.SetEager(true), clipkit.WithCallback(record("early"))))
	cmd := echoCommand(t, "app", late, early)

	res := testrun.New().Invoke(cmd, []string{"--late", "--early"})
	require.NoError(t, res.Err, "invocation should succeed")
	assert.Equal(t, []string{"early", "late"}, order,
		"eager parameters resolve before non-eager ones regardless of token order")
}

func TestGroup_DispatchesSubcommand(t *testing.T) {
	group := clipkit.NewGroup("tool")
	name := clipkit.NewOption("--name")
	require.NoError(t, name.Set(clipkit.WithDefault("world")))
	require.NoError(t, group.AddCommand(echoCommand(t, "greet", name)))

	res := testrun.New().Invoke(group, []string{"greet", "--name", "go"})
	params := resolvedParams(t, res)
	assert.Equal(t, "go", params["name"], "the subcommand should parse its own options")
}

func TestGroup_NoSuchCommand(t *testing.T) {
	group := clipkit.NewGroup("tool")
	require.NoError(t, group.AddCommand(echoCommand(t, "greet")))

	res := testrun.New().Invoke(group, []string{"gret"})
	require.Error(t, res.Err, "an unknown subcommand must fail")
	assert.True(t, errors.Is(res.Err, errs.ErrNoSuchCommand), "error should be the no-such-command kind")
	assert.Contains(t, res.Stderr, "gret", "the message should name the attempted command")
	assert.Contains(t, res.Stderr, "greet", "the nearest registered name should be suggested")
}

func TestGroup_NoArgsShowsHelp(t *testing.T) {
	group := clipkit.NewGroup("tool")
	require.NoError(t, group.AddCommand(echoCommand(t, "greet")))

	res := testrun.New().Invoke(group, nil)
	assert.Equal(t, 0, res.ExitCode, "a bare group invocation shows help and exits zero")
	assert.Contains(t, res.Stdout, "Usage:", "help output should include the usage line")
	assert.Contains(t, res.Stdout, "greet", "help output should list the subcommands")
}

func TestGroup_InvokedSubcommandVisibleToParentCallback(t *testing.T) {
	var invoked string
	group := clipkit.NewGroup("tool")
	require.NoError(t, group.Set(clipkit.WithCommandCallback(func(ctx *clipkit.Context) (any, error) {
		invoked = ctx.InvokedSubcommand
		return nil, nil
	})))
	require.NoError(t, group.AddCommand(echoCommand(t, "greet")))

	res := testrun.New().Invoke(group, []string{"greet"})
	require.NoError(t, res.Err, "dispatch should succeed")
	assert.Equal(t, "greet", invoked, "the parent callback sees the dispatched child's name")
}

func TestChain_InvokesEachChildWithOwnOptions(t *testing.T) {
	group := clipkit.NewGroup("pipeline")
	require.NoError(t, group.Set(clipkit.SetChain(true)))

	var calls []string
	makeStep := func(name, optName string) *clipkit.Command {
		step := clipkit.NewCommand(name)
		opt := clipkit.NewOption(optName)
		require.NoError(t, opt.Set(clipkit.WithParamType(clipkit.IntType{})))
		require.NoError(t, step.AddParam(opt))
		require.NoError(t, step.Set(clipkit.WithCommandCallback(func(ctx *clipkit.Context) (any, error) {
			calls = append(calls, fmt.Sprintf("%s=%v", name, ctx.Params[step.Params()[0].Name]))
			return name, nil
		})))
		return step
	}
	require.NoError(t, group.AddCommand(makeStep("sub1", "--x")))
	require.NoError(t, group.AddCommand(makeStep("sub2", "--y")))
	require.NoError(t, group.AddCommand(makeStep("sub3", "--z")))

	res := testrun.New().Invoke(group, []string{"sub1", "--x", "1", "sub2", "--y", "2"})
	require.NoError(t, res.Err, "chained dispatch should succeed, stderr: %s", res.Stderr)
	assert.Equal(t, []string{"sub1=1", "sub2=2"}, calls,
		"each named child runs once, in order, with only its own options")
	assert.Equal(t, []any{"sub1", "sub2"}, res.ReturnValue,
		"chain results aggregate per child in invocation order")
}

func TestChain_RejectsOptionalArgumentAtRegistration(t *testing.T) {
	group := clipkit.NewGroup("pipeline")
	require.NoError(t, group.Set(clipkit.SetChain(true)))

	child := clipkit.NewCommand("step")
	optional := clipkit.NewArgument("target")
	require.NoError(t, optional.Set(clipkit.WithDefault(".")))
	require.NoError(t, child.AddParam(optional))

	err := group.AddCommand(child)
	require.Error(t, err, "a chained sibling with an optional argument is ambiguous")
	assert.True(t, errors.Is(err, errs.ErrChainOptionalArg), "error should be the chain-optional kind")
}

func TestChain_ResultCallbackAggregates(t *testing.T) {
	group := clipkit.NewGroup("pipeline")
	require.NoError(t, group.Set(
		clipkit.SetChain(true),
		clipkit.WithResultCallback(func(ctx *clipkit.Context, results []any) (any, error) {
			return len(results), nil
		})))
	require.NoError(t, group.AddCommand(echoCommand(t, "a")))
	require.NoError(t, group.AddCommand(echoCommand(t, "b")))

	res := testrun.New().Invoke(group, []string{"a", "b"})
	require.NoError(t, res.Err, "chained dispatch should succeed")
	assert.Equal(t, 2, res.ReturnValue, "the result callback receives one result per child")
}

func TestCollection_FirstMatchWins(t *testing.T) {
	first := clipkit.NewGroup("first")
	require.NoError(t, first.AddCommand(echoCommand(t, "shared", clipkit.NewFlag("--from-first"))))
	second := clipkit.NewGroup("second")
	require.NoError(t, second.AddCommand(echoCommand(t, "shared", clipkit.NewFlag("--from-second"))))
	require.NoError(t, second.AddCommand(echoCommand(t, "only-second")))

	merged := clipkit.NewCollection("tool", first, second)

	params := resolvedParams(t, testrun.New().Invoke(merged, []string{"shared", "--from-first"}))
	assert.Equal(t, true, params["from_first"], "the earlier source's command should win the name")

	res := testrun.New().Invoke(merged, []string{"only-second"})
	assert.NoError(t, res.Err, "commands unique to a later source should still resolve")

	names := merged.ListCommands(nil)
	assert.Equal(t, []string{"shared", "only-second"}, names,
		"listing merges sources keeping first occurrence")
}

func TestCommand_LeafRejectsChildren(t *testing.T) {
	leaf := clipkit.NewCommand("leaf")
	err := leaf.AddCommand(clipkit.NewCommand("child"))
	require.Error(t, err, "leaves cannot own children")
	assert.True(t, errors.Is(err, errs.ErrNotMultiCommand), "error should be the not-multi kind")

	group := clipkit.NewGroup("g")
	require.NoError(t, group.AddCommand(clipkit.NewCommand("dup")))
	err = group.AddCommand(clipkit.NewCommand("dup"))
	require.Error(t, err, "duplicate names must be rejected")
	assert.True(t, errors.Is(err, errs.ErrCommandExists), "error should be the already-exists kind")
}

func TestHelp_RoundTripsDocumentedOptions(t *testing.T) {
	level := clipkit.NewOption("--level", "-l")
	require.NoError(t, level.Set(clipkit.WithHelp("Verbosity level."), clipkit.WithDefault("info")))
	color := clipkit.NewFlag("--color/--no-color")
	cmd := echoCommand(t, "app", level, color)

	res := testrun.New().Invoke(cmd, []string{"--help"})
	assert.Equal(t, 0, res.ExitCode, "help exits zero")
	for _, documented := range []string{"--level", "-l", "--color", "--no-color", "--help"} {
		assert.Contains(t, res.Stdout, documented, "help should document %s", documented)
	}

	// Every documented option must be accepted back by the same command.
	res = testrun.New().Invoke(cmd, []string{"--level", "x", "--color", "--no-color"})
	assert.NoError(t, res.Err, "documented options must parse")
}

func TestHelp_EagerAndShortCircuits(t *testing.T) {
	src := clipkit.NewArgument("src")
	cmd := echoCommand(t, "copy", src)

	res := testrun.New().Invoke(cmd, []string{"--help"})
	assert.Equal(t, 0, res.ExitCode,
		"help must short-circuit before the required argument is enforced")
	assert.Contains(t, res.Stdout, "Show this message and exit.", "the auto help option documents itself")
}

func TestPrompt_ResolvesWhenNothingElseDoes(t *testing.T) {
	name := clipkit.NewOption("--name")
	require.NoError(t, name.Set(clipkit.WithPrompt("Name"), clipkit.SetRequired(true)))
	cmd := echoCommand(t, "app", name)

	runner := testrun.New()
	runner.Input = []string{"gopher"}
	params := resolvedParams(t, runner.Invoke(cmd, nil))
	assert.Equal(t, "gopher", params["name"], "the prompted value should resolve")

	// A command-line value suppresses the prompt entirely.
	runner = testrun.New()
	params = resolvedParams(t, runner.Invoke(cmd, []string{"--name", "cli"}))
	assert.Equal(t, "cli", params["name"], "an explicit value must not prompt")
}

func TestPrompt_ConfirmRetriesOnMismatch(t *testing.T) {
	secret := clipkit.NewOption("--secret")
	require.NoError(t, secret.Set(clipkit.WithPrompt("Secret"), clipkit.WithConfirmPrompt()))
	cmd := echoCommand(t, "app", secret)

	runner := testrun.New()
	runner.Input = []string{"one", "two", "match", "match"}
	params := resolvedParams(t, runner.Invoke(cmd, nil))
	assert.Equal(t, "match", params["secret"], "a mismatch should re-prompt until both entries agree")
}

func TestPrompt_ReAsksOnConversionFailure(t *testing.T) {
	port := clipkit.NewOption("--port")
	require.NoError(t, port.Set(clipkit.WithPrompt("Port"), clipkit.WithParamType(clipkit.IntType{})))
	cmd := echoCommand(t, "app", port)

	runner := testrun.New()
	runner.Input = []string{"not-a-number", "8080"}
	params := resolvedParams(t, runner.Invoke(cmd, nil))
	assert.Equal(t, int64(8080), params["port"], "an invalid entry should re-prompt, not fail")
}

func TestPrompt_AbortOnEOF(t *testing.T) {
	name := clipkit.NewOption("--name")
	require.NoError(t, name.Set(clipkit.WithPrompt("Name")))
	cmd := echoCommand(t, "app", name)

	res := testrun.New().Invoke(cmd, nil)
	require.Error(t, res.Err, "exhausted input aborts the invocation")
	assert.True(t, clipkit.IsAbort(res.Err), "the error should be the abort signal")
	assert.Equal(t, 1, res.ExitCode, "aborts exit with 1")
	assert.Contains(t, res.Stderr, "Aborted!", "the fixed abort message should be printed")
}

func TestCommand_ExitRequest(t *testing.T) {
	cmd := clipkit.NewCommand("app")
	require.NoError(t, cmd.Set(clipkit.WithCommandCallback(func(ctx *clipkit.Context) (any, error) {
		return nil, clipkit.Exit(3)
	})))

	res := testrun.New().Invoke(cmd, nil)
	assert.Equal(t, 3, res.ExitCode, "an explicit exit request carries its code")
	assert.Empty(t, res.Stderr, "an exit request is control flow, not an error to report")
}

func TestCommand_UnboundedArgumentReservation(t *testing.T) {
	sources := clipkit.NewArgument("sources")
	require.NoError(t, sources.Set(clipkit.WithNArgs(-1), clipkit.SetRequired(true)))
	dest := clipkit.NewArgument("dest")
	mode := clipkit.NewArgument("mode")
	cmd := echoCommand(t, "copy", sources, dest, mode)

	params := resolvedParams(t, testrun.New().Invoke(cmd, []string{"a", "b", "c", "d", "e"}))
	assert.Equal(t, []any{"a", "b", "c"}, params["sources"],
		"the unbounded argument keeps what the trailing fixed ones do not reserve")
	assert.Equal(t, "d", params["dest"], "the first fixed argument gets the fourth token")
	assert.Equal(t, "e", params["mode"], "the last fixed argument gets the final token")
}

func TestCommand_RequiredUnboundedArgumentMissing(t *testing.T) {
	sources := clipkit.NewArgument("sources")
	require.NoError(t, sources.Set(clipkit.WithNArgs(-1), clipkit.SetRequired(true)))
	cmd := echoCommand(t, "copy", sources)

	res := testrun.New().Invoke(cmd, nil)
	require.Error(t, res.Err, "a required unbounded argument with no tokens must fail")
	assert.True(t, errors.Is(res.Err, errs.ErrMissingParam), "error should be the missing-parameter kind")
	assert.Equal(t, 2, res.ExitCode, "usage-class failures exit with 2")
	assert.Contains(t, res.Stderr, "sources", "the message should name the missing argument")

	optional := clipkit.NewArgument("sources")
	require.NoError(t, optional.Set(clipkit.WithNArgs(-1)))
	lenient := echoCommand(t, "copy", optional)

	params := resolvedParams(t, testrun.New().Invoke(lenient, nil))
	assert.Nil(t, params["sources"], "an optional unbounded argument simply stays unresolved")
}

func TestCommand_EnvValueGroupArityMismatch(t *testing.T) {
	point := clipkit.NewOption("--point")
	require.NoError(t, point.Set(clipkit.WithNArgs(2), clipkit.WithEnvVars("APP_POINT")))
	cmd := echoCommand(t, "app", point)

	runner := testrun.New()
	runner.Env["APP_POINT"] = "1 2 3"
	res := runner.Invoke(cmd, nil)
	require.Error(t, res.Err, "a surplus token must not be dropped silently")
	assert.True(t, errors.Is(res.Err, errs.ErrBadParam), "error should be the invalid-value kind")
	assert.Contains(t, res.Err.Error(), "groups of 2", "the message should state the expected grouping")
	assert.Equal(t, 2, res.ExitCode, "usage-class failures exit with 2")

	runner = testrun.New()
	runner.Env["APP_POINT"] = "1 2 3 4"
	params := resolvedParams(t, runner.Invoke(cmd, nil))
	assert.Equal(t, []any{"3", "4"}, params["point"],
		"whole groups still resolve, the last occurrence winning")
}

func TestCommand_ProvenanceTracked(t *testing.T) {
	level := clipkit.NewOption("--level")
	require.NoError(t, level.Set(clipkit.WithEnvVars("APP_LEVEL"), clipkit.WithDefault("D")))
	cmd := clipkit.NewCommand("app")
	require.NoError(t, cmd.AddParam(level))

	var source clipkit.Source
	require.NoError(t, cmd.Set(clipkit.WithCommandCallback(func(ctx *clipkit.Context) (any, error) {
		source = ctx.ProvenanceOf("level")
		return nil, nil
	})))

	runner := testrun.New()
	runner.Env["APP_LEVEL"] = "E"
	res := runner.Invoke(cmd, nil)
	require.NoError(t, res.Err, "invocation should succeed")
	assert.Equal(t, clipkit.SourceEnvironment, source, "provenance should name the winning stage")
}
