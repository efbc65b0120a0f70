// Package profile defines the closed taxonomy of autofill field types and
// the canonical profile value passed into every fill invocation.
//
// The taxonomy is fixed: components share the same 19 field types and no
// dynamic registration exists. A Profile is an immutable snapshot of the
// user's attributes; Normalize produces the canonical form the engine
// consumes.
package profile

// Field identifies one profile attribute category.
type Field string

// The complete field taxonomy. Order in All is the engine's canonical
// iteration order and is part of the deterministic-output contract.
const (
	FirstName    Field = "firstName"
	LastName     Field = "lastName"
	FullName     Field = "fullName"
	Email        Field = "email"
	Phone        Field = "phone"
	DateOfBirth  Field = "dateOfBirth"
	Address      Field = "address"
	City         Field = "city"
	State        Field = "state"
	PostalCode   Field = "postalCode"
	Country      Field = "country"
	LinkedIn     Field = "linkedin"
	GitHub       Field = "github"
	Website      Field = "website"
	Company      Field = "company"
	JobTitle     Field = "jobTitle"
	Salary       Field = "salary"
	NoticePeriod Field = "noticePeriod"
	CoverLetter  Field = "coverLetter"
)

// All lists every field type in canonical order.
var All = []Field{
	FirstName, LastName, FullName, Email, Phone, DateOfBirth,
	Address, City, State, PostalCode, Country,
	LinkedIn, GitHub, Website,
	Company, JobTitle, Salary, NoticePeriod, CoverLetter,
}

// Known reports whether f is part of the taxonomy.
func Known(f Field) bool {
	for _, k := range All {
		if k == f {
			return true
		}
	}
	return false
}

// Profile holds the canonical attribute values, keyed by field type.
// Absent fields are empty strings; the engine treats every value as an
// optional string.
type Profile map[Field]string

// Get returns the value for f, empty if absent.
func (p Profile) Get(f Field) string {
	if p == nil {
		return ""
	}
	return p[f]
}

// Clone returns an independent copy. Fill invocations receive clones so a
// running pass never observes concurrent edits.
func (p Profile) Clone() Profile {
	out := make(Profile, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
