package worker

// Progress observes a run. Start is called once per stage with the number
// of fetches it will make, Step after each successful fetch (possibly from
// several goroutines), Finish when the stage ends.
type Progress interface {
	Start(stage Stage, total int)
	Step()
	Finish()
}

type nopProgress struct{}

func (nopProgress) Start(Stage, int) {}
func (nopProgress) Step()            {}
func (nopProgress) Finish()          {}
