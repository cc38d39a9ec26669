package loginlink

// Kind distinguishes login links from invitation links.
type Kind string

const (
	KindLogin      Kind = "login"
	KindInvitation Kind = "invitation"
)

// Kinds lists every supported kind.
var Kinds = []Kind{KindLogin, KindInvitation}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindLogin || k == KindInvitation
}

func (k Kind) String() string {
	return string(k)
}

// ParseKind converts s to a Kind, returning ErrInvalidKind for unknown values.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", ErrInvalidKind
	}
	return k, nil
}
