package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Entry represents a single audit log entry. Entries record which operation
// touched which namespaces and paths, never values, passwords, or keys.
type Entry struct {
	Timestamp string `json:"ts"` // RFC3339 with microseconds.
	Operation string `json:"op"` // Operation name.

	// Optional fields depending on operation.
	Namespace   string   `json:"namespace,omitempty"`    // For secret and namespace operations.
	Namespaces  []string `json:"namespaces,omitempty"`   // For backup create/restore.
	Path        string   `json:"path,omitempty"`         // For single-secret operations.
	SecretCount int      `json:"secret_count,omitempty"` // For backup/restore/import.
	FailedCount int      `json:"failed_count,omitempty"` // For partial restores.
	OutputPath  string   `json:"output_path,omitempty"`  // For backup create and export-key.
	DryRun      bool     `json:"dry_run,omitempty"`      // For dry-run invocations.
}

const logFileName = "audit.jsonl"

// Log appends an entry to the audit log under vaultDir. If logging fails it
// returns silently; operations should not fail because audit logging did.
func Log(vaultDir string, entry Entry) {
	if vaultDir == "" {
		return
	}
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format("2006-01-02T15:04:05.000000Z")
	}

	if err := os.MkdirAll(vaultDir, 0700); err != nil {
		return
	}

	logPath := filepath.Join(vaultDir, logFileName)
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	_, _ = f.Write(append(data, '\n'))
}

// ReadEntries reads all entries from the audit log under vaultDir.
// Returns an empty slice if the log doesn't exist.
func ReadEntries(vaultDir string) ([]Entry, error) {
	logPath := filepath.Join(vaultDir, logFileName)
	f, err := os.Open(logPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			// Skip unparseable lines rather than failing the whole read.
			continue
		}
		entries = append(entries, entry)
	}
	return entries, scanner.Err()
}
