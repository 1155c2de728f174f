package gateway

import (
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// toolRegistry mirrors the router's visible toolset onto one MCP server. Adding and
// removing tools makes the server emit tools/list_changed to its session.
type toolRegistry struct {
	server     *mcp.Server
	handler    func(name string) mcp.ToolHandler
	logger     *zap.Logger
	mu         sync.Mutex
	registered map[string]struct{}
}

func newToolRegistry(server *mcp.Server, handler func(name string) mcp.ToolHandler, logger *zap.Logger) *toolRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &toolRegistry{
		server:     server,
		handler:    handler,
		logger:     logger.Named("tool_registry"),
		registered: make(map[string]struct{}),
	}
}

// Apply registers exactly the given tools.
func (r *toolRegistry) Apply(tools []*mcp.Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make(map[string]struct{}, len(tools))
	for _, tool := range tools {
		if tool == nil || tool.Name == "" {
			continue
		}
		next[tool.Name] = struct{}{}
		if _, ok := r.registered[tool.Name]; ok {
			continue
		}
		r.server.AddTool(tool, r.handler(tool.Name))
	}

	var remove []string
	for name := range r.registered {
		if _, ok := next[name]; !ok {
			remove = append(remove, name)
		}
	}
	if len(remove) > 0 {
		r.server.RemoveTools(remove...)
	}

	r.registered = next
	r.logger.Debug("tools applied", zap.Int("count", len(next)), zap.Int("removed", len(remove)))
}

// Has reports whether name is currently registered.
func (r *toolRegistry) Has(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.registered[name]
	return ok
}
