package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrStageFailed wraps the component error of the stage that stopped an audit run.
	ErrStageFailed = errors.New("audit stage failed")
	// ErrInvalidRequest indicates a request that cannot be executed as given.
	ErrInvalidRequest = errors.New("invalid audit request")
)

// Stage names one step of an audit run.
type Stage string

const (
	StageLoad     Stage = "load"
	StageSplit    Stage = "split"
	StageEvaluate Stage = "evaluate"
	StageFit      Stage = "fit"
	StageReweigh  Stage = "reweigh"
	StageVerify   Stage = "verify"
)

func stageError(stage Stage, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStageFailed, stage, err)
}

func partitionError(index int, err error) error {
	return fmt.Errorf("partition %d: %w", index, err)
}
