package workflows

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"

	vrerrors "github.com/1trippycat/vaultrunner/internal/errors"
)

// fakeClient is an in-memory SecretClient with programmable failures.
type fakeClient struct {
	secrets     map[string]map[string]string // namespace -> path -> value
	failDeletes map[string]bool              // "namespace/path"
	puts        []string
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		secrets:     make(map[string]map[string]string),
		failDeletes: make(map[string]bool),
	}
}

func (f *fakeClient) Put(ctx context.Context, namespace, path, value string) error {
	ns, ok := f.secrets[namespace]
	if !ok {
		ns = make(map[string]string)
		f.secrets[namespace] = ns
	}
	ns[path] = value
	f.puts = append(f.puts, namespace+"/"+path)
	return nil
}

func (f *fakeClient) Get(ctx context.Context, namespace, path string) (string, error) {
	value, ok := f.secrets[namespace][path]
	if !ok {
		return "", fmt.Errorf("%w: %s/%s", vrerrors.ErrSecretNotFound, namespace, path)
	}
	return value, nil
}

func (f *fakeClient) List(ctx context.Context, namespace, prefix string) ([]string, error) {
	var paths []string
	for path := range f.secrets[namespace] {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths, nil
}

func (f *fakeClient) Delete(ctx context.Context, namespace, path string) error {
	if f.failDeletes[namespace+"/"+path] {
		return fmt.Errorf("store returned 502 for %s/%s", namespace, path)
	}
	delete(f.secrets[namespace], path)
	return nil
}

func (f *fakeClient) ListNamespaces(ctx context.Context) ([]string, error) {
	var names []string
	for name := range f.secrets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func TestAddGetSecret(t *testing.T) {
	client := newFakeClient()
	ctx := context.Background()
	vaultDir := t.TempDir()

	err := AddSecret(ctx, client, SecretOptions{
		Namespace: "myapp",
		Path:      "db/password",
		Value:     "s3cret",
		VaultDir:  vaultDir,
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	value, err := GetSecret(ctx, client, SecretOptions{
		Namespace: "myapp",
		Path:      "db/password",
		VaultDir:  vaultDir,
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if value != "s3cret" {
		t.Errorf("Expected s3cret, got: %q", value)
	}
}

func TestAddSecret_DryRunWritesNothing(t *testing.T) {
	client := newFakeClient()

	err := AddSecret(context.Background(), client, SecretOptions{
		Namespace: "myapp",
		Path:      "api-key",
		Value:     "v",
		DryRun:    true,
		VaultDir:  t.TempDir(),
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(client.puts) != 0 {
		t.Errorf("Expected dry run to issue no writes, got: %v", client.puts)
	}
}

func TestAddSecret_InvalidPath(t *testing.T) {
	err := AddSecret(context.Background(), newFakeClient(), SecretOptions{
		Namespace: "myapp",
		Path:      "../etc/passwd",
		Value:     "v",
		VaultDir:  t.TempDir(),
	})
	if !errors.Is(err, vrerrors.ErrInvalidSecretPath) {
		t.Errorf("Expected ErrInvalidSecretPath, got: %v", err)
	}
}

func TestDeleteSecret(t *testing.T) {
	client := newFakeClient()
	ctx := context.Background()
	vaultDir := t.TempDir()

	_ = client.Put(ctx, "myapp", "api-key", "v")

	err := DeleteSecret(ctx, client, SecretOptions{
		Namespace: "myapp",
		Path:      "api-key",
		VaultDir:  vaultDir,
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if _, err := client.Get(ctx, "myapp", "api-key"); !errors.Is(err, vrerrors.ErrSecretNotFound) {
		t.Errorf("Expected secret to be gone, got: %v", err)
	}
}

func TestImportSecrets(t *testing.T) {
	file := filepath.Join(t.TempDir(), "secrets.env")
	content := `# database credentials
DB_PASSWORD=s3cret
API_KEY="quoted-value"

SMTP_PASSWORD='single-quoted'
EMPTY_OK=
`
	if err := os.WriteFile(file, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write secrets file: %v", err)
	}

	client := newFakeClient()
	ctx := context.Background()

	result, err := ImportSecrets(ctx, client, ImportSecretsOptions{
		Namespace: "myapp",
		FilePath:  file,
		VaultDir:  t.TempDir(),
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	want := []string{"API_KEY", "DB_PASSWORD", "EMPTY_OK", "SMTP_PASSWORD"}
	if !reflect.DeepEqual(result.Paths, want) {
		t.Errorf("Expected %v, got: %v", want, result.Paths)
	}

	checks := map[string]string{
		"DB_PASSWORD":   "s3cret",
		"API_KEY":       "quoted-value",
		"SMTP_PASSWORD": "single-quoted",
		"EMPTY_OK":      "",
	}
	for path, wantValue := range checks {
		value, err := client.Get(ctx, "myapp", path)
		if err != nil {
			t.Fatalf("Expected %s to exist, got: %v", path, err)
		}
		if value != wantValue {
			t.Errorf("Expected %s=%q, got: %q", path, wantValue, value)
		}
	}
}

func TestImportSecrets_MalformedLineImportsNothing(t *testing.T) {
	file := filepath.Join(t.TempDir(), "secrets.env")
	content := "GOOD=value\nthis line has no equals sign\n"
	if err := os.WriteFile(file, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write secrets file: %v", err)
	}

	client := newFakeClient()
	_, err := ImportSecrets(context.Background(), client, ImportSecretsOptions{
		Namespace: "myapp",
		FilePath:  file,
		VaultDir:  t.TempDir(),
	})
	if !errors.Is(err, vrerrors.ErrInvalidUsage) {
		t.Fatalf("Expected ErrInvalidUsage, got: %v", err)
	}
	if len(client.puts) != 0 {
		t.Errorf("Expected a malformed file to import nothing, got: %v", client.puts)
	}
}

func TestImportSecrets_EmptyFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "secrets.env")
	if err := os.WriteFile(file, []byte("# nothing here\n"), 0600); err != nil {
		t.Fatalf("Failed to write secrets file: %v", err)
	}

	_, err := ImportSecrets(context.Background(), newFakeClient(), ImportSecretsOptions{
		Namespace: "myapp",
		FilePath:  file,
		VaultDir:  t.TempDir(),
	})
	if !errors.Is(err, vrerrors.ErrInvalidUsage) {
		t.Errorf("Expected ErrInvalidUsage for an empty file, got: %v", err)
	}
}

func TestImportSecrets_DryRun(t *testing.T) {
	file := filepath.Join(t.TempDir(), "secrets.env")
	if err := os.WriteFile(file, []byte("A=1\nB=2\n"), 0600); err != nil {
		t.Fatalf("Failed to write secrets file: %v", err)
	}

	client := newFakeClient()
	result, err := ImportSecrets(context.Background(), client, ImportSecretsOptions{
		Namespace: "myapp",
		FilePath:  file,
		DryRun:    true,
		VaultDir:  t.TempDir(),
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !result.DryRun || len(result.Paths) != 2 {
		t.Errorf("Expected a 2-path dry-run result, got: %+v", result)
	}
	if len(client.puts) != 0 {
		t.Errorf("Expected dry run to issue no writes, got: %v", client.puts)
	}
}

func TestDeleteNamespace(t *testing.T) {
	client := newFakeClient()
	ctx := context.Background()
	_ = client.Put(ctx, "myapp", "a", "1")
	_ = client.Put(ctx, "myapp", "b", "2")

	result, err := DeleteNamespace(ctx, client, DeleteNamespaceOptions{
		Namespace: "myapp",
		VaultDir:  t.TempDir(),
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !reflect.DeepEqual(result.Deleted, []string{"a", "b"}) {
		t.Errorf("Expected [a b] deleted, got: %v", result.Deleted)
	}
	if len(client.secrets["myapp"]) != 0 {
		t.Errorf("Expected namespace to be empty, got: %v", client.secrets["myapp"])
	}
}

func TestDeleteNamespace_PartialFailure(t *testing.T) {
	client := newFakeClient()
	ctx := context.Background()
	_ = client.Put(ctx, "myapp", "a", "1")
	_ = client.Put(ctx, "myapp", "b", "2")
	_ = client.Put(ctx, "myapp", "c", "3")
	client.failDeletes["myapp/b"] = true

	result, err := DeleteNamespace(ctx, client, DeleteNamespaceOptions{
		Namespace: "myapp",
		VaultDir:  t.TempDir(),
	})
	if !errors.Is(err, vrerrors.ErrPartialRestore) {
		t.Fatalf("Expected ErrPartialRestore, got: %v", err)
	}
	if !reflect.DeepEqual(result.Deleted, []string{"a", "c"}) {
		t.Errorf("Expected [a c] deleted, got: %v", result.Deleted)
	}
	if !reflect.DeepEqual(result.FailedPaths, []string{"b"}) {
		t.Errorf("Expected [b] failed, got: %v", result.FailedPaths)
	}
}

func TestDeleteNamespace_DryRun(t *testing.T) {
	client := newFakeClient()
	ctx := context.Background()
	_ = client.Put(ctx, "myapp", "a", "1")
	client.puts = nil

	result, err := DeleteNamespace(ctx, client, DeleteNamespaceOptions{
		Namespace: "myapp",
		DryRun:    true,
		VaultDir:  t.TempDir(),
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !reflect.DeepEqual(result.Deleted, []string{"a"}) {
		t.Errorf("Expected dry run to report [a], got: %v", result.Deleted)
	}
	if len(client.secrets["myapp"]) != 1 {
		t.Errorf("Expected dry run to delete nothing")
	}
}
