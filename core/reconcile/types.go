package reconcile

// Adapter defines how one kind of entity is keyed and compared.
type Adapter[D any, E any] interface {
	// Name returns the kind handled by this adapter (e.g., "shapes", "vat-types").
	Name() string

	// DesiredKey returns the identity of a desired entity.
	DesiredKey(d D) string

	// ExistingKey returns the identity of an existing remote entity.
	ExistingKey(e E) string

	// Compare lists the fields that differ between a desired and an existing entity.
	// An empty result means no update is needed.
	Compare(d D, e E) []string
}

// Funcs adapts plain functions to the Adapter interface. A nil Diff never reports
// mismatches.
type Funcs[D any, E any] struct {
	Kind     string
	Desired  func(D) string
	Existing func(E) string
	Diff     func(D, E) []string
}

func (f Funcs[D, E]) Name() string           { return f.Kind }
func (f Funcs[D, E]) DesiredKey(d D) string  { return f.Desired(d) }
func (f Funcs[D, E]) ExistingKey(e E) string { return f.Existing(e) }

func (f Funcs[D, E]) Compare(d D, e E) []string {
	if f.Diff == nil {
		return nil
	}
	return f.Diff(d, e)
}

// Result represents the reconciliation output for a single key.
type Result struct {
	// Key is the entity identity.
	Key string `json:"key"`

	// DesiredPresent indicates the entity is named by the spec.
	DesiredPresent bool `json:"desired_present"`

	// ExistingPresent indicates the entity exists remotely.
	ExistingPresent bool `json:"existing_present"`

	// Mismatch contains descriptions of differing fields.
	Mismatch []string `json:"mismatch"`
}

// ActionType represents the type of mutation action.
type ActionType string

const (
	// ActionCreate creates an entity missing remotely.
	ActionCreate ActionType = "create"
	// ActionUpdate updates a remote entity whose fields differ.
	ActionUpdate ActionType = "update"
)

// Action represents a planned mutation.
type Action[D any, E any] struct {
	Type     ActionType `json:"type"`
	Key      string     `json:"key"`
	Reason   string     `json:"reason"`
	Desired  D          `json:"-"`
	Existing E          `json:"-"`
}

// Plan contains reconciliation results, planned actions and the remote index.
type Plan[D any, E any] struct {
	Kind    string         `json:"kind"`
	Results []Result       `json:"results"`
	Actions []Action[D, E] `json:"actions"`
	Summary PlanSummary    `json:"summary"`

	// Existing indexes remote entities by key. ApplyPlan adds created and updated entities.
	Existing map[string]E `json:"-"`
}

// PlanSummary provides aggregate counts for a plan.
type PlanSummary struct {
	TotalKeys     int `json:"total_keys"`
	MissingRemote int `json:"missing_remote"`
	RemoteOnly    int `json:"remote_only"`
	Mismatches    int `json:"mismatches"`
	CreateActions int `json:"create_actions"`
	UpdateActions int `json:"update_actions"`
}
