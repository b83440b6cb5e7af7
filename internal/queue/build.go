package queue

import (
	"context"
	"encoding/json"

	"github.com/mlkg-org/backend/pkg/ai"
	"github.com/mlkg-org/backend/pkg/logger"
	"github.com/mlkg-org/backend/pkg/pipeline"
	graphstorage "github.com/mlkg-org/backend/pkg/store/pgx"

	"github.com/jackc/pgx/v5/pgxpool"
)

// BuildGraphMsg is the payload of a build job. InputPath points to the
// chunks-and-mentions JSON on a volume both publisher and worker can see.
type BuildGraphMsg struct {
	Message       string `json:"message"`
	CorrelationID string `json:"correlation_id"`
	InputPath     string `json:"input_path"`
	OutputDir     string `json:"output_dir,omitempty"`
}

// ProcessBuildMessage runs one graph build job end to end and persists
// the result.
func ProcessBuildMessage(
	ctx context.Context,
	aiClient ai.Client,
	conn *pgxpool.Pool,
	msg string,
) error {
	data := new(BuildGraphMsg)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return err
	}
	logger.Info("[Queue] Build job received",
		"correlation_id", data.CorrelationID, "input", data.InputPath)

	input, err := pipeline.ReadInput(data.InputPath)
	if err != nil {
		return err
	}

	builder := pipeline.New()
	builder.Storage = graphstorage.NewStorageWithConnection(conn)
	builder.OutputDir = data.OutputDir

	result, err := builder.Build(ctx, input, aiClient)
	if err != nil {
		return err
	}

	logger.Info("[Queue] Build job completed",
		"correlation_id", data.CorrelationID,
		"entities", len(result.Entities),
		"relations", len(result.Relations),
		"triples", result.Graph.Len())
	return nil
}
