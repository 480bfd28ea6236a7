package workdir

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// StalePartialAge is how old an unfinished write must be before a sweep
// treats it as abandoned
const StalePartialAge = time.Hour

// SweepPolicy bounds the content of a working directory.
// MaxFiles <= 0 disables the count limit. MaxAgeHours is only honoured when
// EnforceMaxAge is set.
type SweepPolicy struct {
	MaxFiles      int  `yaml:"max_files"`
	MaxAgeHours   int  `yaml:"max_age_hours"`
	EnforceMaxAge bool `yaml:"enforce_max_age"`
}

// DefaultSweepPolicy keeps the 100 most recent files and ignores age
func DefaultSweepPolicy() SweepPolicy {
	return SweepPolicy{MaxFiles: 100, MaxAgeHours: 24}
}

// SweepReport summarises one sweep
type SweepReport struct {
	Kept    int
	Deleted int
	Failed  int
}

type sweepCandidate struct {
	path    string
	name    string
	modTime time.Time
}

// Sweep lists dir, orders regular files by modification time (newest first),
// keeps at most policy.MaxFiles of them and deletes the rest. It is best
// effort: listing and deletion failures are counted, never returned.
func Sweep(dir string, policy SweepPolicy) SweepReport {
	var report SweepReport

	entries, err := os.ReadDir(dir)
	if err != nil {
		return report
	}

	now := time.Now()
	maxAge := time.Duration(policy.MaxAgeHours) * time.Hour

	files := make([]sweepCandidate, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		// In-flight writes are invisible to the count until renamed
		if strings.HasPrefix(entry.Name(), partialPrefix) {
			if now.Sub(info.ModTime()) > StalePartialAge {
				remove(path, &report)
			}
			continue
		}

		files = append(files, sweepCandidate{path: path, name: entry.Name(), modTime: info.ModTime()})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].modTime.Equal(files[j].modTime) {
			return files[i].name > files[j].name
		}
		return files[i].modTime.After(files[j].modTime)
	})

	for i, f := range files {
		switch {
		case policy.MaxFiles > 0 && i >= policy.MaxFiles:
			remove(f.path, &report)
		case policy.EnforceMaxAge && maxAge > 0 && now.Sub(f.modTime) > maxAge:
			remove(f.path, &report)
		default:
			report.Kept++
		}
	}

	return report
}

func remove(path string, report *SweepReport) {
	if err := os.Remove(path); err != nil {
		report.Failed++
		return
	}
	report.Deleted++
}
