package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/haatos/simple-qa/internal"
	"github.com/haatos/simple-qa/internal/types"
	"github.com/haatos/simple-qa/internal/util"
)

type StrategyResult struct {
	Success  bool
	ExitCode int
	Output   string
}

// Strategy installs dependencies for and runs the tests of one kind of
// project. A test run that executes but does not pass is reported through
// StrategyResult.Success, not as an error.
type Strategy interface {
	Name() types.ProjectType
	Install(ctx context.Context, workspace string) error
	Run(ctx context.Context, workspace string) (StrategyResult, error)
}

const outputTailLength = 1000

// runShell runs command through /bin/sh in workspace and maps its exit code
// to the result. Only a command that could not be started is an error.
func runShell(ctx context.Context, workspace, command string) (StrategyResult, error) {
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", command)
	cmd.Dir = workspace
	out, err := cmd.CombinedOutput()
	res := StrategyResult{Output: string(out)}
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, fmt.Errorf("err starting command '%s': %w", command, err)
	}
	res.Success = true
	return res, nil
}

func install(ctx context.Context, workspace, command string) error {
	if command == "" {
		return nil
	}
	res, err := runShell(ctx, workspace, command)
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf(
			"install command '%s' exited with code %d: %s",
			command, res.ExitCode, tail(res.Output, outputTailLength),
		)
	}
	return nil
}

func tail(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

// CommandStrategy runs fixed shell commands for a detected project type.
type CommandStrategy struct {
	name           types.ProjectType
	installCommand string
	testCommand    string
}

func NewCommandStrategy(name types.ProjectType, installCommand, testCommand string) *CommandStrategy {
	return &CommandStrategy{
		name:           name,
		installCommand: installCommand,
		testCommand:    testCommand,
	}
}

func (cs *CommandStrategy) Name() types.ProjectType {
	return cs.name
}

func (cs *CommandStrategy) Install(ctx context.Context, workspace string) error {
	return install(ctx, workspace, cs.installCommand)
}

func (cs *CommandStrategy) Run(ctx context.Context, workspace string) (StrategyResult, error) {
	return runShell(ctx, workspace, cs.testCommand)
}

// GenericStrategy runs npm test for node projects and reports failure for
// anything it does not know how to test.
type GenericStrategy struct{}

func (gs *GenericStrategy) Name() types.ProjectType {
	return types.ProjectGeneric
}

func (gs *GenericStrategy) hasPackageJSON(workspace string) bool {
	ok, _ := util.PathExists(filepath.Join(workspace, "package.json"))
	return ok
}

func (gs *GenericStrategy) Install(ctx context.Context, workspace string) error {
	if !gs.hasPackageJSON(workspace) {
		return nil
	}
	return install(ctx, workspace, "npm install")
}

func (gs *GenericStrategy) Run(ctx context.Context, workspace string) (StrategyResult, error) {
	if !gs.hasPackageJSON(workspace) {
		return StrategyResult{
			ExitCode: -1,
			Output: fmt.Sprintf(
				"no test command found: add package.json or %s",
				internal.TestRunOverrideFile,
			),
		}, nil
	}
	return runShell(ctx, workspace, "npm test")
}

// DemoStrategy simulates a test run that passes with the configured
// probability.
type DemoStrategy struct {
	probability func() float64
	roll        func() float64
}

func NewDemoStrategy(probability func() float64) *DemoStrategy {
	return &DemoStrategy{probability: probability, roll: rand.Float64}
}

func (ds *DemoStrategy) Name() types.ProjectType {
	return types.ProjectDemo
}

func (ds *DemoStrategy) Install(context.Context, string) error {
	return nil
}

func (ds *DemoStrategy) Run(context.Context, string) (StrategyResult, error) {
	if ds.roll() < ds.probability() {
		return StrategyResult{Success: true, Output: "demo run passed"}, nil
	}
	return StrategyResult{ExitCode: 1, Output: "demo run failed"}, nil
}

// overrideStrategy replaces the commands of base with the ones from a
// repository's override file. Empty commands fall through to base.
type overrideStrategy struct {
	base   Strategy
	script types.TestRunScript
}

func (ovr *overrideStrategy) Name() types.ProjectType {
	return ovr.base.Name()
}

func (ovr *overrideStrategy) Install(ctx context.Context, workspace string) error {
	if ovr.script.Install == "" {
		return ovr.base.Install(ctx, workspace)
	}
	return install(ctx, workspace, ovr.script.Install)
}

func (ovr *overrideStrategy) Run(ctx context.Context, workspace string) (StrategyResult, error) {
	if ovr.script.Test == "" {
		return ovr.base.Run(ctx, workspace)
	}
	return runShell(ctx, workspace, ovr.script.Test)
}

// ReadOverrideScript parses the override file in workspace. It returns nil
// when the file does not exist.
func ReadOverrideScript(workspace string) (*types.TestRunScript, error) {
	b, err := os.ReadFile(filepath.Join(workspace, internal.TestRunOverrideFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	script := new(types.TestRunScript)
	if err := yaml.Unmarshal(b, script); err != nil {
		return nil, fmt.Errorf("err parsing %s: %w", internal.TestRunOverrideFile, err)
	}
	return script, nil
}

type StrategyRegistry struct {
	strategies map[types.ProjectType]Strategy
}

// NewStrategyRegistry registers a command strategy for every detectable
// project type, the generic fallback and the demo strategy.
func NewStrategyRegistry(passProbability func() float64) *StrategyRegistry {
	r := &StrategyRegistry{strategies: make(map[types.ProjectType]Strategy)}
	pipInstall := "if [ -f requirements.txt ]; then pip install -r requirements.txt; fi"
	for _, s := range []Strategy{
		NewCommandStrategy(types.ProjectPlaywright, "npm ci && npx playwright install --with-deps", "npx playwright test"),
		NewCommandStrategy(types.ProjectCypress, "npm ci", "npx cypress run"),
		NewCommandStrategy(types.ProjectSeleniumPython, pipInstall, "python -m pytest"),
		NewCommandStrategy(types.ProjectPytest, pipInstall, "python -m pytest"),
		NewCommandStrategy(types.ProjectJest, "npm ci", "npx jest --ci"),
		NewCommandStrategy(types.ProjectMocha, "npm ci", "npx mocha"),
		NewCommandStrategy(types.ProjectMaven, "mvn -B -q dependency:resolve", "mvn -B test"),
		NewCommandStrategy(
			types.ProjectGradle,
			"",
			"if [ -x ./gradlew ]; then ./gradlew test; else gradle test; fi",
		),
		NewCommandStrategy(types.ProjectGenericNode, "npm install", "npm test"),
		&GenericStrategy{},
		NewDemoStrategy(passProbability),
	} {
		r.Register(s)
	}
	return r
}

func (r *StrategyRegistry) Register(s Strategy) {
	r.strategies[s.Name()] = s
}

// Resolve returns the strategy for projectType. Types without a strategy,
// including unknown, use the generic one. A workspace override file, when
// present, replaces the commands of whichever strategy was chosen.
func (r *StrategyRegistry) Resolve(projectType types.ProjectType, workspace string) (Strategy, error) {
	s, ok := r.strategies[projectType]
	if !ok {
		s = r.strategies[types.ProjectGeneric]
	}
	if workspace == "" || projectType == types.ProjectDemo {
		return s, nil
	}
	script, err := ReadOverrideScript(workspace)
	if err != nil {
		return nil, err
	}
	if script != nil {
		return &overrideStrategy{base: s, script: *script}, nil
	}
	return s, nil
}
