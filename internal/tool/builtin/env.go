package builtin

import (
	"context"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/harunnryd/hibiki/internal/store"
)

// Runner executes external commands. Injectable so tests never spawn
// processes.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	return strings.TrimSpace(string(out)), err
}

// TabStack tracks browser tabs the assistant itself opened, newest last.
type TabStack struct {
	mu   sync.Mutex
	urls []string
}

func (t *TabStack) Push(url string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.urls = append(t.urls, url)
}

func (t *TabStack) Pop() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.urls) == 0 {
		return "", false
	}
	last := t.urls[len(t.urls)-1]
	t.urls = t.urls[:len(t.urls)-1]
	return last, true
}

func (t *TabStack) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.urls)
}

// Env bundles the collaborators the builtin tools share.
type Env struct {
	Runner    Runner
	Tasks     *store.TaskStore
	Reminders *store.ReminderStore
	Memory    *store.MemoryStore
	Calendar  *store.CalendarStore
	Home      string
	Now       func() time.Time
	Tabs      *TabStack
}

func NewEnv(s *store.Store, home string, runner Runner) *Env {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Env{
		Runner:    runner,
		Tasks:     s.Tasks(),
		Reminders: s.Reminders(),
		Memory:    s.Memory(),
		Calendar:  s.Calendar(),
		Home:      home,
		Now:       time.Now,
		Tabs:      &TabStack{},
	}
}

func (e *Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// openURL hands a URL to the OS default browser.
func (e *Env) openURL(ctx context.Context, url string) error {
	_, err := e.Runner.Run(ctx, "open", url)
	return err
}
