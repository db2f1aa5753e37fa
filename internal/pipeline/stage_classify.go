package pipeline

import (
	"context"

	"github.com/worldmind/orchestrator/internal/llmclient"
	"github.com/worldmind/orchestrator/internal/models"
)

// classify runs the classifier collaborator once and advances the
// mission to uploading. Idempotent: a classification already present is
// left untouched.
func (d *Driver) classify(ctx context.Context, mission *models.Mission) error {
	if mission.Classification == nil {
		classification, err := llmclient.ClassifyRequest(ctx, d.Caller, mission.Request)
		if err != nil {
			return err
		}
		mission.Classification = classification
	}
	mission.Status = models.MissionUploading
	return nil
}

// uploadContext fetches a best-effort project-context summary and
// advances the mission to specifying.
func (d *Driver) uploadContext(ctx context.Context, mission *models.Mission) error {
	projectContext, err := d.ContextProvider.GetContext(ctx, mission.ProjectPath)
	if err != nil {
		// Best-effort per spec.md §4.2 (applies the same grace the spec
		// generator's persistence is given); proceed with empty context.
		projectContext = ""
	}
	mission.ProjectContext = projectContext
	mission.Status = models.MissionSpecifying
	return nil
}
