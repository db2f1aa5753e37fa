// Package pipeline drives one mission through its staged status machine
// (spec.md §4.1): classify → upload-context → clarify → spec → plan →
// approval → wave loop (schedule-wave/dispatch-wave/evaluate-wave) →
// converge → post-mission. Each stage is a method on Driver that mutates
// the mission in place and is safe to re-enter, grounded on the teacher's
// internal/executor/orchestrator.go Orchestrator.ExecutePlan: a single
// owning struct built once at startup that holds every collaborator
// singleton, a context.WithCancel plus signal.Notify for cooperative
// shutdown, and a post-run aggregation step.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/worldmind/orchestrator/internal/config"
	"github.com/worldmind/orchestrator/internal/dispatch"
	"github.com/worldmind/orchestrator/internal/events"
	"github.com/worldmind/orchestrator/internal/llmclient"
	"github.com/worldmind/orchestrator/internal/metrics"
	"github.com/worldmind/orchestrator/internal/models"
	"github.com/worldmind/orchestrator/internal/scheduler"
	"github.com/worldmind/orchestrator/internal/wavedispatch"
	"github.com/worldmind/orchestrator/internal/waveeval"
)

// ContextProvider produces a best-effort project-context summary for a
// project path. Project-directory scanning and language detection are
// out of scope for the core (spec.md §1); this interface is the seam a
// caller wires a real implementation into.
type ContextProvider interface {
	GetContext(ctx context.Context, projectPath string) (string, error)
}

// NoContextProvider is the zero-cost ContextProvider: it always returns
// an empty context, matching "best-effort, never fatal" when no project
// scanner is wired in.
type NoContextProvider struct{}

// GetContext always returns an empty string and a nil error.
func (NoContextProvider) GetContext(context.Context, string) (string, error) { return "", nil }

// Driver owns every singleton collaborator the stage functions need,
// built once at process startup (mirrors the teacher's
// OrchestratorConfig / Orchestrator split).
type Driver struct {
	Caller          llmclient.StructuredCaller
	Dispatcher      dispatch.Dispatcher
	ContextProvider ContextProvider
	Evaluator       *waveeval.Evaluator
	Worktrees       wavedispatch.WorktreeAcquirer
	Bus             *events.Bus
	Config          *config.Config
	WantsDeployment func(request string) bool
}

// New returns a Driver with the given collaborators. Bus and Config must
// not be nil; a nil ContextProvider is replaced with NoContextProvider.
func New(caller llmclient.StructuredCaller, dispatcher dispatch.Dispatcher, evaluator *waveeval.Evaluator, bus *events.Bus, cfg *config.Config) *Driver {
	if bus == nil {
		panic("pipeline: event bus is required")
	}
	if cfg == nil {
		panic("pipeline: config is required")
	}
	return &Driver{
		Caller:          caller,
		Dispatcher:      dispatcher,
		ContextProvider: NoContextProvider{},
		Evaluator:       evaluator,
		Bus:             bus,
		Config:          cfg,
		WantsDeployment: defaultWantsDeployment,
	}
}

// Run drives mission forward through every automatic stage until it
// reaches a terminal status (completed, failed) or a status that awaits
// external input (clarifying, awaiting_approval). Safe to call again
// after either of those: each stage checks its own output before acting.
func (d *Driver) Run(ctx context.Context, mission *models.Mission) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if mission.CreatedAt == 0 {
		mission.CreatedAt = time.Now().UnixMilli()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		mission.UpdatedAt = time.Now().UnixMilli()

		switch mission.Status {
		case models.MissionReceived:
			if err := d.classify(ctx, mission); err != nil {
				return d.fail(mission, err)
			}

		case models.MissionUploading:
			if err := d.uploadContext(ctx, mission); err != nil {
				return d.fail(mission, err)
			}

		case models.MissionSpecifying:
			if err := d.specifyingStep(ctx, mission); err != nil {
				return d.fail(mission, err)
			}
			if mission.Status == models.MissionClarifying {
				return nil // external input required
			}

		case models.MissionClarifying:
			return nil // waiting on user answers, submitted externally

		case models.MissionPlanning:
			if err := d.planMission(ctx, mission); err != nil {
				return d.fail(mission, err)
			}

		case models.MissionAwaitingApproval:
			return nil // waiting on user approval, submitted externally

		case models.MissionExecuting:
			if ctx.Err() != nil {
				mission.Status = models.MissionFailed
				mission.Errors = append(mission.Errors, "mission cancelled")
				continue
			}
			done, err := d.waveStep(ctx, mission)
			if err != nil {
				return d.fail(mission, err)
			}
			if done {
				d.converge(mission)
				d.postMission(ctx, mission)
				d.recordTerminalMetrics(mission)
				d.Bus.Publish(events.MissionEvent(events.MissionCompleted, mission.ID, map[string]interface{}{
					"status": mission.Status,
				}))
				return nil
			}
			if d.Config.WaveCooldownSeconds > 0 {
				select {
				case <-time.After(time.Duration(d.Config.WaveCooldownSeconds) * time.Second):
				case <-ctx.Done():
				}
			}

		case models.MissionCompleted, models.MissionFailed:
			return nil

		default:
			return fmt.Errorf("pipeline: unknown mission status %q", mission.Status)
		}
	}
}

func (d *Driver) fail(mission *models.Mission, err error) error {
	mission.Status = models.MissionFailed
	mission.Errors = append(mission.Errors, err.Error())
	d.recordTerminalMetrics(mission)
	return err
}

// recordTerminalMetrics observes a mission's outcome once it reaches
// MissionCompleted or MissionFailed.
func (d *Driver) recordTerminalMetrics(mission *models.Mission) {
	metrics.MissionsTotal.WithLabelValues(mission.Status).Inc()
	if mission.CreatedAt > 0 {
		elapsed := time.Since(time.UnixMilli(mission.CreatedAt))
		metrics.MissionDuration.Observe(elapsed.Seconds())
	}
}

func defaultWantsDeployment(request string) bool {
	lower := strings.ToLower(request)
	for _, sub := range []string{"deploy", "deployment", "ship to production", "push to staging"} {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}
