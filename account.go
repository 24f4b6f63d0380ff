package coinledger

// FullNameSeparator joins ancestor account names into a full name.
const FullNameSeparator = "::"

// Account is a node in the ledger's account tree. Accounts live in an
// arena owned by the Ledger; the parent is a plain reference and the
// children index is derived by the ledger, not maintained here, to keep
// ownership one-directional.
type Account struct {
	id          int
	name        string
	placeholder bool
	parent      *Account
	singleCoin  bool
	coin        *Coin // set iff singleCoin
}

func (a *Account) ID() int            { return a.id }
func (a *Account) Name() string       { return a.name }
func (a *Account) Placeholder() bool  { return a.placeholder }
func (a *Account) Parent() *Account   { return a.parent }
func (a *Account) SingleCoin() bool   { return a.singleCoin }
func (a *Account) Coin() *Coin        { return a.coin }

// MakeFullName joins a parent's full name and a child name.
func MakeFullName(parent *Account, name string) string {
	if parent == nil {
		return name
	}
	return parent.FullName() + FullNameSeparator + name
}

// FullName returns the join of all ancestor names. Full names are unique
// within a ledger.
func (a *Account) FullName() string { return MakeFullName(a.parent, a.name) }

// IsContainedIn reports whether a is ancestor itself or one of its
// descendants.
func (a *Account) IsContainedIn(ancestor *Account) bool {
	if ancestor == nil {
		return false
	}
	for acc := a; acc != nil; acc = acc.parent {
		if acc == ancestor {
			return true
		}
	}
	return false
}

func (a *Account) String() string { return a.FullName() }
