package dataset

// Role is the single detection role assigned to a column. Every column gets
// exactly one role, computed once per table and shared by all detectors.
type Role uint8

const (
	RoleText Role = iota
	RoleNumeric
	RoleDate
	RoleIdentifier
)

// String returns the wire name of the role.
func (r Role) String() string {
	switch r {
	case RoleNumeric:
		return "numeric"
	case RoleDate:
		return "date"
	case RoleIdentifier:
		return "identifier"
	default:
		return "text"
	}
}

// Classifier assigns roles. DateColumns names the columns treated as dates
// regardless of content; IdentifierThreshold is the distinct-value ratio
// above which a column counts as an identifier candidate.
type Classifier struct {
	DateColumns         []string
	IdentifierThreshold float64
}

// NewClassifier returns a classifier with the claims-domain defaults.
func NewClassifier() *Classifier {
	return &Classifier{
		DateColumns:         []string{"dob", "claim_date"},
		IdentifierThreshold: 0.8,
	}
}

// Classify computes the role and distinct-value ratio of every column.
// Role precedence is date, then numeric, then identifier, then text: a
// highly unique amount column stays numeric so it keeps feeding the
// statistical detectors, while IdentifierCandidates still surfaces it for
// duplicate checks.
func (c *Classifier) Classify(t *Table) *Schema {
	dateSet := make(map[string]struct{}, len(c.DateColumns))
	for _, name := range c.DateColumns {
		dateSet[name] = struct{}{}
	}

	s := &Schema{
		columns:    t.Columns(),
		roles:      make(map[string]Role, t.NumCols()),
		uniqueness: make(map[string]float64, t.NumCols()),
		threshold:  c.IdentifierThreshold,
	}

	for _, name := range s.columns {
		cells := t.Column(name)

		distinct := make(map[string]struct{})
		nonMissing := 0
		numbers := 0
		times := 0
		for _, v := range cells {
			if v.IsMissing() {
				continue
			}
			nonMissing++
			distinct[ValueKey(v)] = struct{}{}
			switch v.Kind() {
			case KindNumber:
				numbers++
			case KindTime:
				times++
			}
		}

		ratio := 0.0
		if t.NumRows() > 0 {
			ratio = float64(len(distinct)) / float64(t.NumRows())
		}
		s.uniqueness[name] = ratio

		_, named := dateSet[name]
		switch {
		case named || (nonMissing > 0 && times == nonMissing):
			s.roles[name] = RoleDate
		case nonMissing > 0 && numbers == nonMissing:
			s.roles[name] = RoleNumeric
		case ratio > c.IdentifierThreshold:
			s.roles[name] = RoleIdentifier
		default:
			s.roles[name] = RoleText
		}
	}
	return s
}

// Schema is the per-table result of role classification. It is immutable
// after Classify and safe to share across detectors.
type Schema struct {
	columns    []string
	roles      map[string]Role
	uniqueness map[string]float64
	threshold  float64
}

// Role returns the role of the named column. Unknown columns are text.
func (s *Schema) Role(column string) Role {
	return s.roles[column]
}

// Uniqueness returns the distinct-value ratio of the named column.
func (s *Schema) Uniqueness(column string) float64 {
	return s.uniqueness[column]
}

// Columns returns the column labels in table order.
func (s *Schema) Columns() []string {
	return append([]string(nil), s.columns...)
}

// NumericColumns returns the numeric columns in table order.
func (s *Schema) NumericColumns() []string {
	return s.withRole(RoleNumeric)
}

// DateColumns returns the date columns in table order.
func (s *Schema) DateColumns() []string {
	return s.withRole(RoleDate)
}

// IdentifierCandidates returns every column whose distinct-value ratio
// exceeds the identifier threshold, whatever its primary role. An amount
// column that happens to be near-unique is a legitimate duplicate-check
// target even though it is classified numeric.
func (s *Schema) IdentifierCandidates() []string {
	out := make([]string, 0, len(s.columns))
	for _, name := range s.columns {
		if s.uniqueness[name] > s.threshold {
			out = append(out, name)
		}
	}
	return out
}

func (s *Schema) withRole(r Role) []string {
	out := make([]string, 0, len(s.columns))
	for _, name := range s.columns {
		if s.roles[name] == r {
			out = append(out, name)
		}
	}
	return out
}
