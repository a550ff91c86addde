package pipeline

// Well-known context keys. The key space is open: stage implementations may
// add further keys, and downstream stages look artifacts up by name.
const (
	KeyPipelineVersion    = "pipelineVersion"
	KeyLast               = "last"
	KeyJob                = "job"
	KeyLaserIsolation     = "laserIsolation"
	KeyLaserOutline       = "laserOutline"
	KeyLaserRaster        = "laserRaster"
	KeyMillingIsolation   = "millingIsolation"
	KeyMillingBoardCutout = "millingBoardCutout"
	KeyLaserGcode         = "laserGcode"
	KeyCncGcode           = "cncGcode"
)

// Artifact is the tagged placeholder record produced by the not-yet-implemented
// processing stages. Kind names the artifact type; Params echoes the stage
// parameters the real implementation will consume. Real toolpath logic will
// attach here later without changing the stage contract.
type Artifact struct {
	Kind   string
	Source string // context key the stage derived its input from, if any
	Params map[string]any
}

// Context is the shared mutable store for one pipeline run. It always holds
// the pipeline version and, after each stage, the most recent stage output
// under KeyLast. One run owns its context exclusively; runs never share one.
type Context struct {
	values map[string]any
}

// NewContext creates the context for a single run.
func NewContext(version string) *Context {
	return &Context{values: map[string]any{KeyPipelineVersion: version}}
}

// Version returns the pipeline version the run was started with.
func (c *Context) Version() string {
	v, _ := c.values[KeyPipelineVersion].(string)
	return v
}

// Set stores an artifact under the given key, replacing any previous value.
func (c *Context) Set(key string, v any) { c.values[key] = v }

// Get returns the artifact stored under key.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Value returns the artifact stored under key, or nil.
func (c *Context) Value(key string) any { return c.values[key] }

// Last returns the most recent stage output.
func (c *Context) Last() any { return c.values[KeyLast] }

// Len returns the number of stored entries.
func (c *Context) Len() int { return len(c.values) }
