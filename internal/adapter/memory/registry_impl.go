package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/jack23912/webscrapbook/internal/entity"
	"github.com/jack23912/webscrapbook/pkg/utils"
)

// RegistryImpl is an in-process implementation of repository.NameRegistry.
type RegistryImpl struct {
	mu    sync.Mutex
	taken map[string]map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *RegistryImpl {
	return &RegistryImpl{taken: make(map[string]map[string]struct{})}
}

// RegisterDocument reserves settings.DocumentName within the session.
func (r *RegistryImpl) RegisterDocument(_ context.Context, settings entity.CaptureSettings) (string, error) {
	return r.register(settings.SessionID, settings.DocumentName, ""), nil
}

// RegisterFile reserves filename within the session, keeping its extension.
func (r *RegistryImpl) RegisterFile(_ context.Context, sessionID, filename string) (string, error) {
	base, ext := utils.SplitExt(filename)
	return r.register(sessionID, base, ext), nil
}

func (r *RegistryImpl) register(sessionID, base, ext string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names, ok := r.taken[sessionID]
	if !ok {
		names = make(map[string]struct{})
		r.taken[sessionID] = names
	}
	for i := 0; ; i++ {
		name := utils.NumberedName(base, ext, i)
		key := strings.ToLower(name)
		if _, used := names[key]; used {
			continue
		}
		names[key] = struct{}{}
		return name
	}
}
