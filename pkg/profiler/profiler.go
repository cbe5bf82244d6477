package profiler

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

// Stage names shared by the commands
const (
	StageVocabulary = "load_vocabulary"
	StageList       = "list_corpus"
	StageTrain      = "train"
	StageSave       = "save_model"
	StageLoad       = "load_model"
	StageEvaluate   = "evaluate"
	StageClassify   = "classify"
)

// Profiler records how long named stages take. It is safe for concurrent use.
type Profiler struct {
	mu    sync.RWMutex
	times map[string][]time.Duration
}

// NewProfiler creates a new profiler
func NewProfiler() *Profiler {
	return &Profiler{
		times: make(map[string][]time.Duration),
	}
}

// Timer measures one run of a stage
type Timer struct {
	profiler *Profiler
	name     string
	start    time.Time
}

// Start begins timing a stage
func (p *Profiler) Start(name string) *Timer {
	return &Timer{profiler: p, name: name, start: time.Now()}
}

// Stop records the elapsed time and returns it
func (t *Timer) Stop() time.Duration {
	d := time.Since(t.start)
	t.profiler.Record(t.name, d)
	return d
}

// Record adds a measured duration for a stage
func (p *Profiler) Record(name string, d time.Duration) {
	p.mu.Lock()
	p.times[name] = append(p.times[name], d)
	p.mu.Unlock()
}

// Time runs fn as the named stage, recording its duration even when it fails
func (p *Profiler) Time(name string, fn func() error) error {
	t := p.Start(name)
	defer t.Stop()
	return fn()
}

// Stats summarizes the runs of one stage
type Stats struct {
	Name    string
	Count   int
	Total   time.Duration
	Average time.Duration
	Min     time.Duration
	Max     time.Duration
	Median  time.Duration
	P95     time.Duration
	P99     time.Duration
}

// GetStats returns statistics for one stage
func (p *Profiler) GetStats(name string) Stats {
	p.mu.RLock()
	sorted := append([]time.Duration(nil), p.times[name]...)
	p.mu.RUnlock()

	if len(sorted) == 0 {
		return Stats{Name: name}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	n := len(sorted)
	total := lo.Sum(sorted)
	return Stats{
		Name:    name,
		Count:   n,
		Total:   total,
		Average: total / time.Duration(n),
		Min:     sorted[0],
		Max:     sorted[n-1],
		Median:  sorted[n/2],
		P95:     sorted[percentileIndex(n, 0.95)],
		P99:     sorted[percentileIndex(n, 0.99)],
	}
}

func percentileIndex(n int, q float64) int {
	i := int(float64(n) * q)
	if i >= n {
		i = n - 1
	}
	return i
}

// GetAllStats returns statistics for every recorded stage, by name
func (p *Profiler) GetAllStats() []Stats {
	p.mu.RLock()
	names := lo.Keys(p.times)
	p.mu.RUnlock()

	sort.Strings(names)
	return lo.Map(names, func(name string, _ int) Stats { return p.GetStats(name) })
}

// Reset clears all timing data
func (p *Profiler) Reset() {
	p.mu.Lock()
	p.times = make(map[string][]time.Duration)
	p.mu.Unlock()
}

// WriteReport writes a timing table for all stages
func (p *Profiler) WriteReport(w io.Writer) {
	stats := p.GetAllStats()
	if len(stats) == 0 {
		fmt.Fprintln(w, "No timing data available")
		return
	}

	fmt.Fprintf(w, "⏱️  Performance Profile Report\n")
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Stage", "Count", "Total", "Avg", "Min", "Max", "P95", "P99"})
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, s := range stats {
		table.Append([]string{
			s.Name,
			fmt.Sprintf("%d", s.Count),
			FormatDuration(s.Total),
			FormatDuration(s.Average),
			FormatDuration(s.Min),
			FormatDuration(s.Max),
			FormatDuration(s.P95),
			FormatDuration(s.P99),
		})
	}
	table.Render()
}

// FormatDuration formats a duration for display
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Microsecond:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	case d < time.Millisecond:
		return fmt.Sprintf("%.1fμs", float64(d.Nanoseconds())/1e3)
	case d < time.Second:
		return fmt.Sprintf("%.2fms", float64(d.Nanoseconds())/1e6)
	default:
		return fmt.Sprintf("%.3fs", d.Seconds())
	}
}
