package pipeline

import "fmt"

// Stage identifies where in the pipeline a fatal error occurred. Every error
// is fatal to the current run; the scheduler may re-run the whole pipeline
// later and rely on branch reuse plus diff short-circuiting to stay safe.
type Stage string

const (
	StageBranch      Stage = "branch-setup"
	StageFetch       Stage = "fetch"
	StageDiff        Stage = "diff"
	StageWrite       Stage = "write"
	StagePush        Stage = "push"
	StagePullRequest Stage = "pull-request"
)

type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}
