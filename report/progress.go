package report

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"

	"github.com/danielmmetz/hn-stats/worker"
)

// Progress draws one progress bar per collection stage.
type Progress struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

var _ worker.Progress = (*Progress)(nil)

func NewProgress(w io.Writer) *Progress {
	return &Progress{w: w}
}

func (p *Progress) Start(stage worker.Stage, total int) {
	if total <= 0 {
		p.bar = nil
		return
	}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionSetDescription(fmt.Sprintf("%-18s", string(stage))),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(p.w) }),
	)
}

func (p *Progress) Step() {
	if p.bar != nil {
		p.bar.Add(1)
	}
}

func (p *Progress) Finish() {
	if p.bar == nil {
		return
	}
	if !p.bar.IsFinished() {
		p.bar.Exit()
		fmt.Fprintln(p.w)
	}
	p.bar = nil
}
