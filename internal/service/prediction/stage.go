package prediction

// Stage is a step of the prediction pipeline. Stages advance strictly in
// declaration order; any failure moves the run to StageFailed.
type Stage string

const (
	StageExtracting  Stage = "extracting"
	StageOverriding  Stage = "overriding"
	StageClassifying Stage = "classifying"
	StageComposing   Stage = "composing"
	StagePersisting  Stage = "persisting"
	StageDone        Stage = "done"
	StageFailed      Stage = "failed"
)

// StageHook observes stage transitions of a single run.
type StageHook func(subjectID string, stage Stage)
