package repost

// State is a step of the repost state machine
type State int

const (
	// StateStart is the initial state
	StateStart State = iota
	// StateMetadataResolved means the pull request's metadata was fetched
	StateMetadataResolved
	// StateWorkingCopyReady means the base repository is cloned and the head commit resolved
	StateWorkingCopyReady
	// StateBaseMerged means the integration branch holds base merged with the head commit
	StateBaseMerged
	// StatePublished means the publish branch was pushed and the new pull request opened
	StatePublished
	// StateAborted is terminal for conflicts and failures
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "Start"
	case StateMetadataResolved:
		return "MetadataResolved"
	case StateWorkingCopyReady:
		return "WorkingCopyReady"
	case StateBaseMerged:
		return "BaseMerged"
	case StatePublished:
		return "Published"
	case StateAborted:
		return "Aborted"
	}
	return "Unknown"
}

// Transition describes one state change
type Transition struct {
	From   State
	To     State
	Detail string
}

// Observer is notified of every state change
type Observer func(Transition)
