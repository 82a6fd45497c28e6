package sgf

// ProgressEvent represents a progress update during an operation.
type ProgressEvent struct {
	// Stage identifies the operation reporting progress.
	Stage ProgressStage

	// Path is the entry just processed.
	Path string

	// EntriesDone is the number of entries processed so far.
	EntriesDone int

	// BytesDone is the number of entry data bytes processed so far.
	BytesDone uint64
}

// ProgressStage identifies the current phase of an operation.
type ProgressStage uint8

const (
	// StageListing indicates entries are being enumerated.
	StageListing ProgressStage = iota

	// StageExtracting indicates entry data is being collected.
	StageExtracting

	// StageRewriting indicates entries are being copied to the output.
	StageRewriting

	// StageInspecting indicates entries are being digested.
	StageInspecting
)

// String returns the string representation of the stage.
func (s ProgressStage) String() string {
	switch s {
	case StageListing:
		return "listing"
	case StageExtracting:
		return "extracting"
	case StageRewriting:
		return "rewriting"
	case StageInspecting:
		return "inspecting"
	default:
		return "unknown"
	}
}

// ProgressFunc receives progress updates. Operations call it synchronously.
type ProgressFunc func(ProgressEvent)
