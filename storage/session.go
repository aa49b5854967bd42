package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/loanops_backend/utils"
)

const (
	sessionPrefix          = "session_"
	sessionTimestampLayout = "20060102_150405"
)

// NewSessionDir creates the session folder for one undo run.
func NewSessionDir(baseDir string, loanId int) (string, error) {
	name := fmt.Sprintf("%s%s_loan_%d", sessionPrefix, time.Now().Format(sessionTimestampLayout), loanId)
	dir := filepath.Join(baseDir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// NewReplaySessionDir creates a session folder for a replay run that has no
// preceding undo session.
func NewReplaySessionDir(baseDir string) (string, error) {
	name := fmt.Sprintf("%s%s_replay", sessionPrefix, time.Now().Format(sessionTimestampLayout))
	dir := filepath.Join(baseDir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// LatestSessionDir returns the most recent session folder under baseDir.
// Session names start with their creation timestamp, so the lexicographic
// maximum is the latest. Returns ErrorRecordNotFound when none exist.
func LatestSessionDir(baseDir string) (string, error) {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		return "", utils.ErrorRecordNotFound
	}

	var sessions []string
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), sessionPrefix) {
			sessions = append(sessions, entry.Name())
		}
	}
	if len(sessions) == 0 {
		return "", utils.ErrorRecordNotFound
	}

	sort.Sort(sort.Reverse(sort.StringSlice(sessions)))
	return filepath.Join(baseDir, sessions[0]), nil
}
