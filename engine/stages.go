package engine

import (
	"io"
	"log"
)

// StageCtl writes a banner to a log.Logger each time a stage of
// work starts or finishes. A nil Logger discards the banners.
type StageCtl struct {
	Logger *log.Logger

	num     int
	current string
}

func (o *StageCtl) logger() *log.Logger {
	if o.Logger == nil {
		return log.New(io.Discard, "", 0)
	}
	return o.Logger
}

// Next finishes the current stage, if any, and starts a new one.
func (o *StageCtl) Next(description string) {
	o.Done()

	o.num++
	o.current = description

	o.logger().Printf("========== started %s ==========", description)
}

// Done finishes the current stage.
func (o *StageCtl) Done() {
	if o.current == "" {
		return
	}

	o.logger().Printf("========== finished %s ==========", o.current)
	o.current = ""
}

// Count returns the number of stages started so far.
func (o *StageCtl) Count() int {
	return o.num
}
