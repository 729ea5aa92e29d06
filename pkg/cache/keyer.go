package cache

// keyVersion is bumped whenever layout or rendering output changes shape so
// stale entries are never served.
const keyVersion = "v1"

// Keyer derives cache keys from content hashes and options.
type Keyer interface {
	LayoutKey(treeHash string, opts LayoutKeyOpts) string
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts holds everything besides the tree that affects a layout.
type LayoutKeyOpts struct {
	ContextHash string  `json:"context"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	MaxDepth    int     `json:"max_depth"`
	MaxNodes    int     `json:"max_nodes"`
	Encoding    string  `json:"encoding"`
}

// ArtifactKeyOpts holds everything besides the layout that affects a
// rendered artifact.
type ArtifactKeyOpts struct {
	Format      string  `json:"format"`
	ChangesHash string  `json:"changes,omitempty"`
	Selected    string  `json:"selected,omitempty"`
	NoLegend    bool    `json:"no_legend,omitempty"`
	Scale       float64 `json:"scale,omitempty"`
}

// DefaultKeyer hashes options into versioned keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey returns the key of a layout.
func (DefaultKeyer) LayoutKey(treeHash string, opts LayoutKeyOpts) string {
	return hashKey("layout:"+keyVersion, treeHash, opts)
}

// ArtifactKey returns the key of a rendered artifact.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact:"+keyVersion+":"+opts.Format, layoutHash, opts)
}
