package pipeline

import "github.com/landaire/stoptrackingme/internal/weburl"

// Stage names a pipeline step in a Trace.
type Stage string

const (
	StageParse   Stage = "parse"
	StageMatcher Stage = "matcher"
	StageResolve Stage = "resolve"
	StageDiscard Stage = "discard"
	StageGlobal  Stage = "global"
)

// Step is one recorded pipeline step. URL is the intermediate result, if
// the step produced one.
type Step struct {
	Stage  Stage
	URL    string
	Detail string
}

// Trace is the result of Explain.
type Trace struct {
	Input        string
	Parsed       bool
	Matcher      string
	ResolveError error
	Discarded    bool
	Result       weburl.URL
	Changed      bool
	Steps        []Step
}

func (t *Trace) add(stage Stage, url, detail string) {
	t.Steps = append(t.Steps, Step{Stage: stage, URL: url, Detail: detail})
}
