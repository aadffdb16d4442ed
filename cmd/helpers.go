package cmd

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"

	vrerrors "github.com/1trippycat/vaultrunner/internal/errors"
	"github.com/1trippycat/vaultrunner/internal/keystore"
	"github.com/1trippycat/vaultrunner/internal/ui"
	"github.com/1trippycat/vaultrunner/internal/utils"
	"github.com/1trippycat/vaultrunner/internal/vault"
)

// maxPasswordAttempts caps interactive password retries before the command
// fails with ErrTooManyAttempts.
const maxPasswordAttempts = 3

// startSpinner creates and starts a spinner with the given message when not
// in verbose or debug mode. Returns the spinner and a function that should be
// deferred to clean up.
//
// IMPORTANT: spinner.FinalMSG values do NOT need trailing newlines. The
// cleanup function automatically calls ui.EnsureNewline() on the final
// message before printing it.
func startSpinner(message string) (*spinner.Spinner, func()) {
	Logger.Debugf("Starting spinner with message: %s", message)
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message

	// Ignore color errors - continue without colored spinner if it fails.
	_ = s.Color("cyan")

	if !verbose && !debug {
		s.Start()
		// Ensure log output is discarded unless in verbose mode.
		log.SetOutput(io.Discard)
	} else {
		Logger.Infof("Running in verbose or debug mode: %s", message)
	}

	cleanup := func() {
		// Restore log output first.
		if !verbose && !debug {
			log.SetOutput(os.Stdout)
		}

		// Ensure final message ends with a newline.
		finalMsg := ""
		if s.FinalMSG != "" {
			finalMsg = ui.EnsureNewline(s.FinalMSG)
			// Clear FinalMSG so s.Stop() doesn't print it.
			s.FinalMSG = ""
		}

		if !verbose && !debug {
			s.Stop()
		}

		if finalMsg != "" {
			fmt.Print(finalMsg)
		}
	}

	return s, cleanup
}

// promptPassword reads a password without echo. Fails if stdin is not a
// terminal, so scripts cannot silently hang on a hidden prompt.
func promptPassword(prompt string) ([]byte, error) {
	if !utils.IsTerminal() {
		return nil, fmt.Errorf("%w: a password prompt requires an interactive terminal", vrerrors.ErrInvalidUsage)
	}
	return utils.ReadPassphrase(prompt)
}

// promptNewPassword reads and confirms a new password. A mismatch returns
// ErrPasswordMismatch without retrying; the operator re-runs the command.
func promptNewPassword(prompt string) ([]byte, error) {
	password, err := promptPassword(prompt)
	if err != nil {
		return nil, err
	}
	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		return nil, err
	}
	if string(password) != string(confirm) {
		return nil, vrerrors.ErrPasswordMismatch
	}
	return password, nil
}

// confirmDestructive asks for an explicit y/N answer before a destructive
// operation. Anything other than y or yes aborts with ErrUserAborted.
func confirmDestructive(question string) error {
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", question)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("reading confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return nil
	}
	return vrerrors.ErrUserAborted
}

// unlockCredential returns the decrypted root credential, retrying up to
// maxPasswordAttempts times on a wrong password. The session memoizes the
// password and derived key, so a command that unlocks more than once in a
// process prompts only the first time.
func unlockCredential(store *keystore.Store, sess *keystore.Session) ([]byte, error) {
	for attempt := 1; attempt <= maxPasswordAttempts; attempt++ {
		credential, err := store.UnlockWithSession(sess, promptPassword)
		if err == nil {
			return credential, nil
		}
		if !errors.Is(err, vrerrors.ErrInvalidPassword) {
			return nil, err
		}
		if attempt < maxPasswordAttempts {
			Logger.WarnfUser("Invalid password, try again (%d/%d)", attempt, maxPasswordAttempts)
		}
	}
	return nil, vrerrors.ErrTooManyAttempts
}

// newStoreClient unlocks the key store for the root credential and builds a
// client for the configured secret store. The returned cleanup wipes the
// session's cached key material and must be deferred.
func newStoreClient(store *keystore.Store) (*vault.Client, func(), error) {
	sess := keystore.NewSession()
	credential, err := unlockCredential(store, sess)
	if err != nil {
		sess.Clear()
		return nil, nil, err
	}
	client, err := vault.NewClient(Config.VaultAddr, string(credential))
	if err != nil {
		sess.Clear()
		return nil, nil, err
	}
	return client, sess.Clear, nil
}

// renderJSON writes v to stdout as indented JSON, for --output json.
func renderJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// jsonOutput reports whether the operator asked for JSON rendering.
func jsonOutput() bool {
	return Config.OutputFormat == "json"
}
