package slurm

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const timestampLayout = "2006-01-02T15:04:05"

var (
	fieldPattern        = regexp.MustCompile(`(\w+)=(\S+)`)
	submittedJobPattern = regexp.MustCompile(`Submitted batch job (\d+)`)
)

// unset values the scheduler reports for fields it does not know
func isUnset(value string) bool {
	switch value {
	case "", "Unknown", "N/A", "(null)", "None":
		return true
	}
	return false
}

// ParseStatusOutput parses `scontrol show job` style output into key/value
// fields.
func ParseStatusOutput(output string) (map[string]string, error) {
	if strings.TrimSpace(output) == "" {
		return nil, errors.New("empty scheduler status output")
	}

	fields := make(map[string]string)
	for _, line := range strings.Split(output, "\n") {
		for _, match := range fieldPattern.FindAllStringSubmatch(line, -1) {
			fields[match[1]] = match[2]
		}
	}

	if len(fields) == 0 {
		return nil, errors.Errorf("no fields found in scheduler status output: %q", output)
	}
	return fields, nil
}

// ExtractExternalID extracts the scheduler job id from sbatch output.
func ExtractExternalID(submitOutput string) (string, error) {
	match := submittedJobPattern.FindStringSubmatch(submitOutput)
	if match == nil {
		return "", errors.Errorf("could not extract job id from sbatch output: %q", submitOutput)
	}
	return match[1], nil
}

// ParseTimestamp parses a scheduler timestamp, returning nil for the
// placeholder values the scheduler uses for unknown times.
func ParseTimestamp(value string) *time.Time {
	if isUnset(value) {
		return nil
	}
	ts, err := time.Parse(timestampLayout, value)
	if err != nil {
		return nil
	}
	return &ts
}

// JobInfo is the normalized view of one scheduler status query.
type JobInfo struct {
	ExternalID string
	RawState   string
	StartTime  *time.Time
	EndTime    *time.Time
	ExitCode   string
	Reason     string
}

// Summarize builds a JobInfo from parsed scontrol fields.
func Summarize(fields map[string]string) *JobInfo {
	info := &JobInfo{
		ExternalID: fields["JobId"],
		RawState:   fields["JobState"],
		StartTime:  ParseTimestamp(fields["StartTime"]),
		EndTime:    ParseTimestamp(fields["EndTime"]),
	}
	if !isUnset(fields["ExitCode"]) {
		info.ExitCode = fields["ExitCode"]
	}
	if !isUnset(fields["Reason"]) {
		info.Reason = fields["Reason"]
	}
	return info
}

// ErrorMessage builds a failure description from the observed scheduler
// state for persisting onto failed jobs.
func (i *JobInfo) ErrorMessage() string {
	parts := []string{fmt.Sprintf("scheduler state: %s", i.RawState)}

	if i.ExitCode != "" && i.ExitCode != "0:0" {
		parts = append(parts, fmt.Sprintf("exit code: %s", i.ExitCode))
	}
	if i.Reason != "" {
		parts = append(parts, fmt.Sprintf("reason: %s", i.Reason))
	}

	switch i.RawState {
	case "CANCELLED":
		parts = append(parts, "job was cancelled")
	case "TIMEOUT":
		parts = append(parts, "job exceeded time limit")
	case "OUT_OF_MEMORY":
		parts = append(parts, "job ran out of memory")
	case "NODE_FAIL":
		parts = append(parts, "node failure occurred")
	}

	return strings.Join(parts, "; ")
}
