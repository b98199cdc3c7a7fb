// Package deploy implements the testnet deployment pipeline and the
// private-node sub-pipeline.
//
// Both pipelines are strictly sequential: each stage fully completes,
// including any SSH reachability wait, before the next begins. Reporting
// goes through the Observer sink so tests can assert on emitted events
// rather than console text.
package deploy

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// EventType classifies a pipeline event.
type EventType string

const (
	// EventStageStarted indicates a pipeline stage has started.
	EventStageStarted EventType = "stage.started"
	// EventStageCompleted indicates a pipeline stage completed successfully.
	EventStageCompleted EventType = "stage.completed"
	// EventStageFailed indicates a pipeline stage failed.
	EventStageFailed EventType = "stage.failed"
	// EventRunBanner is the numbered banner printed before an ansible run.
	EventRunBanner EventType = "run.banner"
	// EventWarning is a prominent operator-facing warning block.
	EventWarning EventType = "warning"
)

// Event is a structured pipeline event.
type Event struct {
	Type      EventType
	Stage     string
	Message   string
	Timestamp time.Time

	// Run and Total carry the banner numbering for EventRunBanner.
	Run   int
	Total int

	// Lines carries the body of an EventWarning block.
	Lines []string
}

// Observer is the injectable reporting sink for both pipelines.
type Observer interface {
	// Printf logs a plain diagnostic line.
	Printf(format string, v ...interface{})

	// Event emits a structured event.
	Event(event Event)
}

var (
	bannerStyle  = lipgloss.NewStyle().Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#eab308")).Bold(true)
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444"))
)

// ConsoleObserver renders events to standard output and diagnostics through
// the standard log package.
type ConsoleObserver struct {
	styled bool
}

// NewConsoleObserver creates a console observer. Styling is disabled when
// stdout is not a terminal.
func NewConsoleObserver() *ConsoleObserver {
	return &ConsoleObserver{styled: isatty.IsTerminal(os.Stdout.Fd())}
}

// Printf implements Observer.
func (o *ConsoleObserver) Printf(format string, v ...interface{}) {
	log.Printf(format, v...)
}

// Event implements Observer.
func (o *ConsoleObserver) Event(event Event) {
	switch event.Type {
	case EventRunBanner:
		o.printBanner(event)
	case EventWarning:
		o.printWarning(event)
	case EventStageFailed:
		fmt.Println(o.render(failureStyle, fmt.Sprintf("[%s] %s", event.Stage, event.Message)))
	default:
		log.Printf("[%s] %s", event.Stage, event.Message)
	}
}

// printBanner reproduces the framed "Ansible Run n of total" banner the
// playbook operators are used to scanning for.
func (o *ConsoleObserver) printBanner(event Event) {
	msg := fmt.Sprintf("Ansible Run %d of %d: %s", event.Run, event.Total, event.Message)
	line := strings.Repeat("=", len(msg))
	fmt.Printf("%s\n%s\n%s\n", line, o.render(bannerStyle, msg), line)
}

func (o *ConsoleObserver) printWarning(event Event) {
	fmt.Println()
	fmt.Println(o.render(warningStyle, "WARNING!"))
	for _, line := range event.Lines {
		fmt.Println(line)
	}
}

func (o *ConsoleObserver) render(style lipgloss.Style, s string) string {
	if !o.styled {
		return s
	}
	return style.Render(s)
}

// logStageStart emits a stage start event.
func logStageStart(observer Observer, stage string) {
	observer.Event(Event{
		Type:      EventStageStarted,
		Stage:     stage,
		Message:   "starting",
		Timestamp: time.Now(),
	})
}

// logStageComplete emits a stage completion event with its duration.
func logStageComplete(observer Observer, stage string, duration time.Duration) {
	observer.Event(Event{
		Type:      EventStageCompleted,
		Stage:     stage,
		Message:   fmt.Sprintf("completed in %v", duration.Round(time.Millisecond)),
		Timestamp: time.Now(),
	})
}

// logStageFailed emits a stage failure event.
func logStageFailed(observer Observer, stage string, err error) {
	observer.Event(Event{
		Type:      EventStageFailed,
		Stage:     stage,
		Message:   fmt.Sprintf("failed: %v", err),
		Timestamp: time.Now(),
	})
}

// logRunBanner emits the numbered ansible run banner.
func logRunBanner(observer Observer, run, total int, title string) {
	observer.Event(Event{
		Type:      EventRunBanner,
		Message:   title,
		Run:       run,
		Total:     total,
		Timestamp: time.Now(),
	})
}
