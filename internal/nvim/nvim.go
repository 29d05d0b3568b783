package nvim

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/neovim/go-client/nvim"
)

// ListenAddressEnv names the variable a running Neovim exports for its RPC socket.
const ListenAddressEnv = "NVIM_LISTEN_ADDRESS"

// ErrNoInstance is returned when no Neovim address is configured.
var ErrNoInstance = errors.New("no running Neovim instance ($" + ListenAddressEnv + " is not set)")

// Manager handles the connection to a running Neovim instance.
type Manager struct {
	nvim *nvim.Nvim
}

// New connects to the Neovim instance at addr, or at $NVIM_LISTEN_ADDRESS
// when addr is empty.
func New(addr string) (*Manager, error) {
	if addr == "" {
		addr = os.Getenv(ListenAddressEnv)
	}
	if addr == "" {
		return nil, ErrNoInstance
	}
	v, err := nvim.Dial(addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nvim at %s: %w", addr, err)
	}
	return &Manager{nvim: v}, nil
}

// Close disconnects from Neovim.
func (m *Manager) Close() {
	if m.nvim != nil {
		m.nvim.Close()
	}
}

// processSequentially runs processFn over items in order and splits the
// returned paths by outcome.
func processSequentially[T any](
	items []T,
	processFn func(item T) (path string, success bool),
) (succeeded, failed []string) {
	for _, item := range items {
		path, success := processFn(item)
		if success {
			succeeded = append(succeeded, path)
		} else {
			failed = append(failed, path)
		}
	}
	return succeeded, failed
}

// ReloadFiles asks Neovim to re-read every listed file that is open in a
// buffer. Files not open in Neovim count as reloaded.
func (m *Manager) ReloadFiles(paths []string) (reloaded, failed []string) {
	return processSequentially(paths, func(path string) (string, bool) {
		return path, m.reloadFile(path)
	})
}

func (m *Manager) reloadFile(filePath string) bool {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return false
	}

	var bufnr int
	if err := m.nvim.Call("bufnr", &bufnr, absPath); err != nil {
		return false
	}
	if bufnr < 0 {
		return true
	}
	return m.nvim.Command(fmt.Sprintf("checktime %d", bufnr)) == nil
}
