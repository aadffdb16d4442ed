package backup

import (
	"encoding/json"
	"fmt"
	"sort"

	vrerrors "github.com/1trippycat/vaultrunner/internal/errors"
)

// snapshotVersion is the version of the serialized snapshot payload, tracked
// separately from the outer blob format.
const snapshotVersion = 1

// Snapshot is the logical content of a backup: namespace -> path -> value.
// Creation time and the namespace list live in the blob's cleartext
// metadata, not here, so two snapshots of an unmodified store serialize to
// identical bytes.
type Snapshot struct {
	FormatVersion int                          `json:"format_version"`
	Namespaces    map[string]map[string]string `json:"namespaces"`
}

// NewSnapshot returns an empty snapshot at the current format version.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		FormatVersion: snapshotVersion,
		Namespaces:    make(map[string]map[string]string),
	}
}

// put records a secret value in the snapshot.
func (s *Snapshot) put(namespace, path, value string) {
	ns, ok := s.Namespaces[namespace]
	if !ok {
		ns = make(map[string]string)
		s.Namespaces[namespace] = ns
	}
	ns[path] = value
}

// SecretCount returns the total number of secrets across all namespaces.
func (s *Snapshot) SecretCount() int {
	n := 0
	for _, secrets := range s.Namespaces {
		n += len(secrets)
	}
	return n
}

// NamespaceNames returns the snapshot's namespaces, sorted.
func (s *Snapshot) NamespaceNames() []string {
	names := make([]string, 0, len(s.Namespaces))
	for name := range s.Namespaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// remapTo collapses every namespace into a single target namespace. Used for
// promotion-style restores. Path collisions across source namespaces resolve
// to the lexicographically last namespace's value, matching the sorted
// replay order.
func (s *Snapshot) remapTo(target string) *Snapshot {
	out := NewSnapshot()
	for _, namespace := range s.NamespaceNames() {
		for path, value := range s.Namespaces[namespace] {
			out.put(target, path, value)
		}
	}
	return out
}

// Marshal serializes the snapshot to its canonical byte representation.
// encoding/json emits map keys in sorted order, so the encoding is
// deterministic: equal snapshots produce identical bytes.
func (s *Snapshot) Marshal() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("serializing snapshot: %w", err)
	}
	return data, nil
}

// ParseSnapshot deserializes a decrypted snapshot payload. A payload that
// decrypted cleanly but does not parse indicates a corrupt backup.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", vrerrors.ErrCorruptBackup, err)
	}
	if s.FormatVersion != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported snapshot version %d", vrerrors.ErrCorruptBackup, s.FormatVersion)
	}
	if s.Namespaces == nil {
		s.Namespaces = make(map[string]map[string]string)
	}
	return &s, nil
}
