package cellml

// Interface is a variable's declared availability for connections.
type Interface string

const (
	InterfaceNone          Interface = "none"
	InterfacePublic        Interface = "public"
	InterfacePrivate       Interface = "private"
	InterfacePublicPrivate Interface = "public_and_private"
)

// ParseInterface validates an interface attribute value. The empty string
// means none.
func ParseInterface(s string) (Interface, error) {
	switch Interface(s) {
	case "":
		return InterfaceNone, nil
	case InterfaceNone, InterfacePublic, InterfacePrivate, InterfacePublicPrivate:
		return Interface(s), nil
	}
	return InterfaceNone, newError(ErrBadValue, "", "invalid interface %q", s)
}

// OffersPublic reports whether the interface exposes the public side.
func (i Interface) OffersPublic() bool {
	return i == InterfacePublic || i == InterfacePublicPrivate
}

// OffersPrivate reports whether the interface exposes the private side.
func (i Interface) OffersPrivate() bool {
	return i == InterfacePrivate || i == InterfacePublicPrivate
}

// Offers reports whether the interface exposes the given side.
func (i Interface) Offers(side Interface) bool {
	switch side {
	case InterfacePublic:
		return i.OffersPublic()
	case InterfacePrivate:
		return i.OffersPrivate()
	}
	return false
}
