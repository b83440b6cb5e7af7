package pipeline

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mlkg-org/backend/pkg/common"
)

// Input is the pipeline's source material, produced by the external
// chunking and mention-recognition steps.
type Input struct {
	Chunks   []common.Chunk   `json:"chunks"`
	Mentions []common.Mention `json:"mentions"`
}

// ReadInput loads pipeline input from a JSON file.
func ReadInput(path string) (Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Input{}, err
	}
	var input Input
	if err := json.Unmarshal(data, &input); err != nil {
		return Input{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := input.Validate(); err != nil {
		return Input{}, fmt.Errorf("validating %s: %w", path, err)
	}
	return input, nil
}

// Validate checks referential integrity: every mention must point to a
// known chunk, and chunk ids must be unique.
func (in Input) Validate() error {
	chunkIDs := make(map[string]struct{}, len(in.Chunks))
	for _, c := range in.Chunks {
		if c.ID == "" {
			return fmt.Errorf("chunk with empty id")
		}
		if _, dup := chunkIDs[c.ID]; dup {
			return fmt.Errorf("duplicate chunk id %q", c.ID)
		}
		chunkIDs[c.ID] = struct{}{}
	}
	for i, m := range in.Mentions {
		if m.Surface == "" {
			return fmt.Errorf("mention %d has empty surface text", i)
		}
		if _, ok := chunkIDs[m.ChunkID]; !ok {
			return fmt.Errorf("mention %q references unknown chunk %q", m.Surface, m.ChunkID)
		}
	}
	return nil
}
