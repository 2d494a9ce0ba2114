// Package host is the boundary to the embedding application's UI
// capabilities. The engine only ever asks the host to open things or to
// let the user pick a document; rendering is entirely the host's concern.
package host

import (
	"context"
	"errors"
	"log/slog"
	"os/exec"
)

// ErrNoPicker is returned when the host cannot present a document picker.
var ErrNoPicker = errors.New("host: no document picker available")

// Actions is what the dispatcher needs from the host.
type Actions interface {
	// OpenDocument brings a vault document to the foreground.
	OpenDocument(path string) error
	// OpenURL opens a URL in the external browser.
	OpenURL(url string) error
	// PickDocument asks the user to choose a vault document and returns
	// its path.
	PickDocument(ctx context.Context) (string, error)
}

// Shell is the default host: it opens URLs through the system opener and
// logs document activations, since a headless service has no editor pane
// to focus.
type Shell struct {
	logger *slog.Logger
	opener string
}

// NewShell creates a Shell host using the given opener command
// (xdg-open on Linux, open on macOS). An empty opener disables OpenURL.
func NewShell(logger *slog.Logger, opener string) *Shell {
	return &Shell{logger: logger, opener: opener}
}

// OpenDocument logs the activation request.
func (s *Shell) OpenDocument(path string) error {
	s.logger.Info("host: open document", slog.String("path", path))
	return nil
}

// OpenURL launches the system opener.
func (s *Shell) OpenURL(url string) error {
	if s.opener == "" {
		s.logger.Info("host: open url (no opener configured)", slog.String("url", url))
		return nil
	}
	return exec.Command(s.opener, url).Start()
}

// PickDocument is unsupported in the headless host.
func (s *Shell) PickDocument(_ context.Context) (string, error) {
	return "", ErrNoPicker
}

var _ Actions = (*Shell)(nil)
