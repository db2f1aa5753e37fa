package pipeline

import (
	"context"

	"github.com/worldmind/orchestrator/internal/llmclient"
	"github.com/worldmind/orchestrator/internal/models"
)

// specifyingStep implements the two stage functions spec.md §4.1 names
// under the "specifying" status: generate-clarifying-questions (which
// may pause the mission at "clarifying") and generate-spec (which
// advances to "planning"). Idempotent on both halves independently.
func (d *Driver) specifyingStep(ctx context.Context, mission *models.Mission) error {
	if !mission.ClarifyingResolved {
		if mission.ClarifyingQuestions == nil {
			questions, err := llmclient.ClarifyingQuestions(ctx, d.Caller, mission.Request)
			if err != nil {
				return err
			}
			if questions == nil {
				questions = []string{}
			}
			mission.ClarifyingQuestions = questions
		}

		if len(mission.ClarifyingQuestions) > 0 && len(mission.UserAnswers) == 0 {
			mission.Status = models.MissionClarifying
			return nil
		}

		mission.ClarifyingResolved = true
	}

	if mission.Spec == nil {
		spec, err := llmclient.GenerateSpec(ctx, d.Caller, mission.Request, mission.Classification, mission.ProjectContext, mission.UserAnswers, mission.ProjectPath)
		if err != nil {
			return err
		}
		mission.Spec = spec
	}

	mission.Status = models.MissionPlanning
	return nil
}
