package domain

type PrincipalKind string

const (
	PrincipalStudent PrincipalKind = "student"
	PrincipalAdmin   PrincipalKind = "admin"
)

// UserModel is the name stored in notification recipient and read rows.
func (k PrincipalKind) UserModel() string {
	switch k {
	case PrincipalStudent:
		return "Student"
	case PrincipalAdmin:
		return "Admin"
	}
	return ""
}

// Principal is the authenticated caller of one request.
type Principal struct {
	Kind    PrincipalKind
	Student *Student
	Admin   *Admin
}

func StudentPrincipal(s *Student) *Principal {
	return &Principal{Kind: PrincipalStudent, Student: s}
}

func AdminPrincipal(a *Admin) *Principal {
	return &Principal{Kind: PrincipalAdmin, Admin: a}
}

func (p *Principal) ID() int64 {
	switch {
	case p == nil:
		return 0
	case p.Kind == PrincipalStudent && p.Student != nil:
		return p.Student.ID
	case p.Kind == PrincipalAdmin && p.Admin != nil:
		return p.Admin.ID
	}
	return 0
}

func (p *Principal) IsAdmin() bool { return p != nil && p.Kind == PrincipalAdmin && p.Admin != nil }

func (p *Principal) IsStudent() bool {
	return p != nil && p.Kind == PrincipalStudent && p.Student != nil
}
