package cmd

import (
	"fmt"
	"os"

	"github.com/worldmind/orchestrator/internal/config"
	"github.com/worldmind/orchestrator/internal/dispatch"
	"github.com/worldmind/orchestrator/internal/display"
	"github.com/worldmind/orchestrator/internal/events"
	"github.com/worldmind/orchestrator/internal/gitworkspace"
	"github.com/worldmind/orchestrator/internal/llmclient"
	"github.com/worldmind/orchestrator/internal/logger"
	"github.com/worldmind/orchestrator/internal/oscillation"
	"github.com/worldmind/orchestrator/internal/pipeline"
	"github.com/worldmind/orchestrator/internal/wavedispatch"
	"github.com/worldmind/orchestrator/internal/waveeval"
)

// defaultConfigPath is where NewRootCommand's subcommands look for a
// resolved project configuration unless --config overrides it.
const defaultConfigPath = ".worldmind/config.yaml"

// buildDriver wires the full collaborator graph for one mission run:
// an LLM structured caller, a local-container dispatcher, the wave
// evaluator (gate + oscillation detector + git merge manager), and an
// event bus with a console subscriber attached. Mirrors the teacher's
// OrchestratorConfig construction in internal/cmd/run.go, generalized to
// this module's collaborator set.
func buildDriver(cfg *config.Config, agentPath, gitWorkDir string, worktrees wavedispatch.WorktreeAcquirer) (*pipeline.Driver, *events.Bus) {
	caller := llmclient.NewClient(llmclient.NewInvoker())
	dispatcher := dispatch.NewLocalContainerDispatcher(agentPath)

	runner := gitworkspace.NewShellGitRunner(gitWorkDir)
	gitManager := gitworkspace.NewManager(runner, gitWorkDir)

	evaluator := waveeval.New(
		dispatcher,
		oscillation.NewDetector(),
		gitManager,
		cfg.ReviewScoreThreshold,
		cfg.DiagnosticFilePatterns,
		cfg.SkipUnblocksDependents,
	)

	bus := events.NewBus()
	attachConsoleSubscriber(bus, cfg)
	evaluator.Bus = bus

	drv := pipeline.New(caller, dispatcher, evaluator, bus, cfg)
	drv.Worktrees = worktrees

	return drv, bus
}

// attachConsoleSubscriber starts a goroutine draining bus into a
// ConsoleLogger, following the teacher's console-as-bus-subscriber
// convention (spec.md's ambient logging section): the console logger
// never produces events, it only renders them.
func attachConsoleSubscriber(bus *events.Bus, cfg *config.Config) {
	ch := make(chan events.Event, 64)
	bus.Subscribe(ch)

	console := logger.NewConsoleLogger(os.Stdout, cfg.LogLevel)
	go func() {
		for evt := range ch {
			logEvent(console, evt)
		}
	}()
}

func logEvent(console *logger.ConsoleLogger, evt events.Event) {
	switch evt.Type {
	case events.TaskFailed:
		console.Infof("[%s] task %s failed", evt.MissionID, evt.TaskID)
	case events.TaskFulfilled:
		console.Infof("[%s] task %s fulfilled", evt.MissionID, evt.TaskID)
	case events.TaskStarted:
		console.Infof("[%s] task %s started", evt.MissionID, evt.TaskID)
	case events.WaveMerged:
		console.Infof("[%s] wave %v merged tasks %v", evt.MissionID, evt.Payload["wave"], evt.Payload["merged"])
	case events.WaveCompleted:
		console.Infof("[%s] wave %v complete: merged=%v conflicted=%v",
			evt.MissionID, evt.Payload["wave"], evt.Payload["merged"], evt.Payload["conflicted"])
		if conflicted, ok := evt.Payload["conflicted"].([]string); ok && len(conflicted) > 0 {
			display.WarnConflictedTasks(conflicted).Display(os.Stderr)
		}
	case events.QualityGateDeny:
		console.Warnf("[%s] task %s denied by quality gate", evt.MissionID, evt.TaskID)
	case events.DeployerSuccess:
		console.Infof("[%s] deployer %s succeeded at %v", evt.MissionID, evt.TaskID, evt.Payload["url"])
	case events.DeployerFailed:
		console.Warnf("[%s] deployer %s failed: %v (%v)", evt.MissionID, evt.TaskID, evt.Payload["reason"], evt.Payload["category"])
	case events.MissionCompleted:
		console.Infof("[%s] mission %v", evt.MissionID, evt.Payload["status"])
	default:
		console.LogDebug(fmt.Sprintf("[%s] %s", evt.MissionID, evt.Type))
	}
}

func loadConfigOrDefault(path string) (*config.Config, error) {
	if path == "" {
		path = defaultConfigPath
	}
	return config.LoadConfig(path)
}
