package workflow

// Status is a lifecycle state. The valid values depend on the entity kind.
type Status string

// Report lifecycle.
const (
	StatusPending       Status = "pending"
	StatusInvestigating Status = "investigating"
	StatusEscalated     Status = "escalated"
	StatusResolved      Status = "resolved"
	StatusDismissed     Status = "dismissed"
)

// Public post request lifecycle (shares "pending").
const (
	StatusUnderReview Status = "under_review"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
	StatusCancelled   Status = "cancelled"
	StatusExpired     Status = "expired"
)

// Announcement lifecycle (shares "expired").
const (
	StatusDraft     Status = "draft"
	StatusScheduled Status = "scheduled"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// Edge is a single from→to transition.
type Edge struct {
	From Status
	To   Status
}

// Rule restricts who may take an edge. An empty role list means any
// authenticated role. OwnerAllowed extends the list to the record owner
// (reporter / requester / author) regardless of role.
type Rule struct {
	Roles        []Role
	OwnerAllowed bool
}

func (r Rule) permits(role Role, isOwner bool) bool {
	if r.OwnerAllowed && isOwner {
		return true
	}
	if len(r.Roles) == 0 {
		return true
	}
	for _, allowed := range r.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

// Definition is the full per-kind state machine: reachable transitions,
// terminal states, edge permissions, history action names, and the initial
// status plus the review status forced by Assign (empty for kinds without
// assignment).
type Definition struct {
	Kind         Kind
	Initial      Status
	ReviewStatus Status
	Transitions  map[Status][]Status
	Terminal     map[Status]bool
	Rules        map[Edge]Rule
	Actions      map[Edge]string
}

// Allows reports whether to is reachable from from.
func (d *Definition) Allows(from, to Status) bool {
	for _, next := range d.Transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s permits no further transitions.
func (d *Definition) IsTerminal(s Status) bool {
	return d.Terminal[s]
}

// ActionFor returns the history action recorded for an edge. Defaults to the
// target status name when no override is registered.
func (d *Definition) ActionFor(from, to Status) string {
	if a, ok := d.Actions[Edge{From: from, To: to}]; ok {
		return a
	}
	return string(to)
}

var moderatorOrAdmin = []Role{RoleModerator, RoleAdmin}

var definitions = map[Kind]*Definition{
	KindReport: {
		Kind:         KindReport,
		Initial:      StatusPending,
		ReviewStatus: StatusInvestigating,
		Transitions: map[Status][]Status{
			StatusPending:       {StatusInvestigating, StatusDismissed},
			StatusInvestigating: {StatusResolved, StatusEscalated, StatusDismissed},
			StatusEscalated:     {StatusResolved, StatusDismissed},
		},
		Terminal: map[Status]bool{
			StatusResolved:  true,
			StatusDismissed: true,
		},
		Rules: map[Edge]Rule{
			{StatusPending, StatusInvestigating}:   {Roles: moderatorOrAdmin},
			{StatusPending, StatusDismissed}:       {Roles: moderatorOrAdmin},
			{StatusInvestigating, StatusResolved}:  {Roles: moderatorOrAdmin},
			{StatusInvestigating, StatusEscalated}: {Roles: moderatorOrAdmin},
			{StatusInvestigating, StatusDismissed}: {Roles: moderatorOrAdmin},
			{StatusEscalated, StatusResolved}:      {Roles: moderatorOrAdmin},
			{StatusEscalated, StatusDismissed}:     {Roles: moderatorOrAdmin},
		},
	},
	KindPublicPostRequest: {
		Kind:         KindPublicPostRequest,
		Initial:      StatusPending,
		ReviewStatus: StatusUnderReview,
		Transitions: map[Status][]Status{
			StatusPending:     {StatusUnderReview, StatusRejected, StatusCancelled, StatusExpired},
			StatusUnderReview: {StatusApproved, StatusRejected},
		},
		Terminal: map[Status]bool{
			StatusApproved:  true,
			StatusRejected:  true,
			StatusCancelled: true,
			StatusExpired:   true,
		},
		Rules: map[Edge]Rule{
			{StatusPending, StatusUnderReview}:  {Roles: moderatorOrAdmin},
			{StatusPending, StatusRejected}:     {Roles: moderatorOrAdmin},
			{StatusPending, StatusCancelled}:    {Roles: []Role{RoleAdmin}, OwnerAllowed: true},
			{StatusPending, StatusExpired}:      {Roles: []Role{RoleSystem}},
			{StatusUnderReview, StatusApproved}: {Roles: moderatorOrAdmin},
			{StatusUnderReview, StatusRejected}: {Roles: moderatorOrAdmin},
		},
	},
	KindAnnouncement: {
		Kind:    KindAnnouncement,
		Initial: StatusDraft,
		Transitions: map[Status][]Status{
			StatusDraft:     {StatusScheduled, StatusPublished, StatusArchived},
			StatusScheduled: {StatusPublished, StatusArchived},
			StatusPublished: {StatusExpired, StatusArchived},
		},
		Terminal: map[Status]bool{
			StatusArchived: true,
			StatusExpired:  true,
		},
		Rules: map[Edge]Rule{
			{StatusDraft, StatusScheduled}:     {Roles: []Role{RoleAdmin}},
			{StatusDraft, StatusPublished}:     {Roles: []Role{RoleAdmin}},
			{StatusDraft, StatusArchived}:      {Roles: []Role{RoleAdmin}},
			{StatusScheduled, StatusPublished}: {Roles: []Role{RoleAdmin, RoleSystem}},
			{StatusScheduled, StatusArchived}:  {Roles: []Role{RoleAdmin}},
			{StatusPublished, StatusExpired}:   {Roles: []Role{RoleSystem}},
			{StatusPublished, StatusArchived}:  {Roles: []Role{RoleAdmin}},
		},
	},
}

// DefinitionFor returns the state machine for a kind, or nil when the kind is
// unknown.
func DefinitionFor(kind Kind) *Definition {
	return definitions[kind]
}

// NonTerminalStatuses returns every status of a kind that still accepts
// transitions, in table order. Used by the projection queries to exclude
// closed records.
func NonTerminalStatuses(kind Kind) []string {
	def := definitions[kind]
	if def == nil {
		return nil
	}
	out := make([]string, 0, len(def.Transitions))
	for from := range def.Transitions {
		if !def.Terminal[from] {
			out = append(out, string(from))
		}
	}
	return out
}
